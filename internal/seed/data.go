package seed

type communitySeed struct {
	Name        string
	Description string
}

type imageSeed struct {
	Key string
	URL string
	Alt string
}

type pinSeed struct {
	Community          string
	Description        string
	City               string
	AdministrativeArea string
	Country            string
	Latitude           float64
	Longitude          float64
	Image              string
	Comments           []string
}

var defaultCommunities = []communitySeed{
	{Name: "Beautiful day", Description: "Weather related pins"},
	{Name: "Thunderstorms", Description: "Weather related pins"},
}

var defaultImages = []imageSeed{
	{
		Key: "light-painting",
		URL: "https://images.unsplash.com/photo-1668622702524-d8917fd37f5e?auto=format&fit=crop&w=1335&q=80",
		Alt: "Light painting",
	},
	{
		Key: "traffic",
		URL: "https://images.unsplash.com/photo-1668875438649-f26a1a16e148?auto=format&fit=crop&w=1335&q=80",
		Alt: "Traffic at night",
	},
	{
		Key: "avatar",
		URL: "https://images.unsplash.com/photo-1552058544-f2b08422138a?auto=format&fit=facearea&facepad=2&w=256&h=256&q=80",
		Alt: "Profile picture",
	},
}

var defaultPins = []pinSeed{
	{
		Community:          "beautiful-day",
		Description:        "This is a description",
		City:               "Detroit",
		AdministrativeArea: "Michigan",
		Country:            "United States",
		Latitude:           42.330005282145656,
		Longitude:          -83.05348303745654,
		Image:              "light-painting",
	},
	{
		Community:          "thunderstorms",
		Description:        "Hello world",
		City:               "Rochester",
		AdministrativeArea: "Michigan",
		Country:            "United States",
		Latitude:           42.71907152240076,
		Longitude:          -83.1835650331445,
		Image:              "traffic",
	},
	{
		Community:          "beautiful-day",
		Description:        "Hello from KPRC 2",
		City:               "Houston",
		AdministrativeArea: "Texas",
		Country:            "United States",
		Latitude:           29.690064977995842,
		Longitude:          -95.5266790802049,
	},
	{
		Community:          "thunderstorms",
		Description:        "Hello from KPRC 2",
		City:               "Pembroke Park",
		AdministrativeArea: "Florida",
		Country:            "United States",
		Latitude:           25.985358031040818,
		Longitude:          -80.17751500968816,
		Comments:           []string{"This is a comment"},
	},
}
