package extract

// highPopulationPlaces match too many records to be worth a backend query.
var highPopulationPlaces = map[string]bool{
	"india":          true,
	"delhi":          true,
	"new delhi":      true,
	"mumbai":         true,
	"bombay":         true,
	"kolkata":        true,
	"calcutta":       true,
	"chennai":        true,
	"madras":         true,
	"bangalore":      true,
	"bengaluru":      true,
	"hyderabad":      true,
	"ahmedabad":      true,
	"pune":           true,
	"surat":          true,
	"jaipur":         true,
	"lucknow":        true,
	"kanpur":         true,
	"nagpur":         true,
	"maharashtra":    true,
	"uttar pradesh":  true,
	"west bengal":    true,
	"bihar":          true,
	"karnataka":      true,
	"tamil nadu":     true,
	"gujarat":        true,
	"rajasthan":      true,
	"madhya pradesh": true,
	"andhra pradesh": true,
	"telangana":      true,
	"kerala":         true,
}

// smallerPlaces are recognized without a preposition cue but still narrow a search.
var smallerPlaces = map[string]bool{
	"patna":         true,
	"indore":        true,
	"bhopal":        true,
	"ludhiana":      true,
	"agra":          true,
	"nashik":        true,
	"vadodara":      true,
	"ranchi":        true,
	"guwahati":      true,
	"bhubaneswar":   true,
	"dehradun":      true,
	"shimla":        true,
	"noida":         true,
	"gurgaon":       true,
	"gurugram":      true,
	"ghaziabad":     true,
	"faridabad":     true,
	"howrah":        true,
	"siliguri":      true,
	"durgapur":      true,
	"asansol":       true,
	"mysore":        true,
	"mangalore":     true,
	"coimbatore":    true,
	"madurai":       true,
	"kochi":         true,
	"visakhapatnam": true,
	"vijayawada":    true,
	"goa":           true,
	"chandigarh":    true,
	"amritsar":      true,
	"varanasi":      true,
	"allahabad":     true,
	"prayagraj":     true,
	"salt lake":     true,
	"navi mumbai":   true,
}

func isHighPopulation(normalized string) bool {
	return highPopulationPlaces[normalized]
}

func isKnownPlace(normalized string) bool {
	return highPopulationPlaces[normalized] || smallerPlaces[normalized]
}
