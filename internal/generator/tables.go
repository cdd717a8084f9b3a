package generator

import "github.com/leadscout/api/internal/model"

// keywordSet maps query keywords to the categories and names used for matching queries.
type keywordSet struct {
	keywords   []string
	categories []string
	names      []string
}

// Order matters: the first set with a matching keyword wins.
var keywordSets = []keywordSet{
	{
		keywords:   []string{"restaurant", "pizza", "imbiss", "café", "cafe", "bistro", "gaststätte"},
		categories: []string{"Restaurant", "Pizzeria", "Café", "Bistro", "Gaststätte"},
		names: []string{
			"Zum Goldenen Löwen", "Trattoria Bella Vista", "Café Sonnenschein", "Bistro am Markt",
			"Gasthaus Linde", "Pizzeria Napoli", "Restaurant Seeblick", "Brauhaus Alte Mühle",
		},
	},
	{
		keywords:   []string{"friseur", "salon", "barber", "haar"},
		categories: []string{"Friseur", "Barbershop", "Kosmetikstudio"},
		names: []string{
			"Haarstudio Schnittpunkt", "Salon Haarmonie", "Barbershop Klinge", "Friseur Kamm & Schere",
			"Kosmetik Glanzzeit", "Haarwerk Studio",
		},
	},
	{
		keywords:   []string{"zahnarzt", "arzt", "praxis", "klinik", "dental"},
		categories: []string{"Zahnarzt", "Allgemeinarzt", "Arztpraxis"},
		names: []string{
			"Zahnarztpraxis Dr. Weiß", "Praxis am Stadtpark", "Dentalzentrum Mitte", "Hausarztpraxis Müller",
			"Gemeinschaftspraxis Lindenhof",
		},
	},
	{
		keywords:   []string{"auto", "kfz", "werkstatt", "reifen"},
		categories: []string{"Autowerkstatt", "Autohaus", "Reifenservice"},
		names: []string{
			"Kfz-Meisterbetrieb Schrauber", "Autohaus Sternfahrt", "Reifen Express", "Werkstatt Kolbenring",
			"Autoservice Bremer",
		},
	},
	{
		keywords:   []string{"hotel", "pension", "übernachtung", "hostel"},
		categories: []string{"Hotel", "Pension", "Gästehaus"},
		names: []string{
			"Hotel Zur Post", "Pension Waldesruh", "Gästehaus Am Brunnen", "Stadthotel Kronprinz",
			"Hotel Rheinblick",
		},
	},
	{
		keywords:   []string{"bäckerei", "baeckerei", "bäcker", "konditorei"},
		categories: []string{"Bäckerei", "Konditorei", "Café"},
		names: []string{
			"Bäckerei Kornblume", "Konditorei Zuckerhut", "Backstube Müller", "Brotzeit Bäckerei",
		},
	},
	{
		keywords:   []string{"fitness", "gym", "sport", "yoga"},
		categories: []string{"Fitnessstudio", "Yogastudio", "Sportverein"},
		names: []string{
			"FitWerk Studio", "Kraftraum Athletik", "Yoga Lotusblüte", "Sportpark Nord",
		},
	},
	{
		keywords:   []string{"anwalt", "kanzlei", "rechtsanwalt", "steuer"},
		categories: []string{"Rechtsanwalt", "Steuerberater", "Notar"},
		names: []string{
			"Kanzlei Recht & Partner", "Steuerbüro Fischer", "Rechtsanwälte Becker Schulz", "Notariat am Dom",
		},
	},
}

var genericCategories = []string{"Dienstleistung", "Einzelhandel", "Handwerk"}

var genericNames = []string{
	"Müller & Söhne", "Schmidt Service", "Meyer Handel", "Schulz Betrieb",
	"Fischer Werkstatt", "Weber Dienstleistungen", "Wagner & Co.", "Becker Fachgeschäft",
}

// cityCoordinates is keyed by lower-cased city name.
var cityCoordinates = map[string]model.Coordinates{
	"berlin":     {Lat: 52.5200, Lng: 13.4050},
	"hamburg":    {Lat: 53.5511, Lng: 9.9937},
	"münchen":    {Lat: 48.1351, Lng: 11.5820},
	"muenchen":   {Lat: 48.1351, Lng: 11.5820},
	"munich":     {Lat: 48.1351, Lng: 11.5820},
	"köln":       {Lat: 50.9375, Lng: 6.9603},
	"koeln":      {Lat: 50.9375, Lng: 6.9603},
	"frankfurt":  {Lat: 50.1109, Lng: 8.6821},
	"stuttgart":  {Lat: 48.7758, Lng: 9.1829},
	"düsseldorf": {Lat: 51.2277, Lng: 6.7735},
	"dortmund":   {Lat: 51.5136, Lng: 7.4653},
	"essen":      {Lat: 51.4556, Lng: 7.0116},
	"leipzig":    {Lat: 51.3397, Lng: 12.3731},
	"bremen":     {Lat: 53.0793, Lng: 8.8017},
	"dresden":    {Lat: 51.0504, Lng: 13.7373},
	"hannover":   {Lat: 52.3759, Lng: 9.7320},
	"nürnberg":   {Lat: 49.4521, Lng: 11.0767},
}

// Geographic centre of Germany.
var defaultCoordinates = model.Coordinates{Lat: 51.1657, Lng: 10.4515}

var streetNames = []string{
	"Hauptstraße", "Bahnhofstraße", "Schulstraße", "Gartenstraße", "Dorfstraße",
	"Bergstraße", "Lindenstraße", "Kirchstraße", "Marktplatz", "Friedrichstraße",
}

var areaCodes = []string{"030", "040", "089", "0221", "069", "0711", "0211", "0231", "0341", "0421"}

var openingHoursTemplates = []string{
	"Mo-Fr 08:00-18:00, Sa 09:00-14:00",
	"Mo-Sa 10:00-22:00, So 12:00-20:00",
	"Di-So 11:30-14:30, 17:30-23:00",
}
