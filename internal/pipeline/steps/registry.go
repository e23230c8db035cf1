// Package steps defines the stages of a proposal generation run and the
// status text reported when each one starts.
package steps

// Stage names
const (
	LoadBackground  = "load_background"
	LoadRules       = "load_rules"
	LoadPortfolio   = "load_portfolio"
	SelectPortfolio = "select_portfolio"
	GenerateLetter  = "generate_letter"
	LastResort      = "last_resort"
)

// StepDefinition defines metadata for a pipeline stage.
type StepDefinition struct {
	Name   string
	Status string
}

// Ordered lists the stages of a normal run in execution order.
var Ordered = []StepDefinition{
	{Name: LoadBackground, Status: "Loading your background..."},
	{Name: LoadRules, Status: "Loading proposal rules..."},
	{Name: LoadPortfolio, Status: "Loading portfolio..."},
	{Name: SelectPortfolio, Status: "Selecting relevant portfolio items..."},
	{Name: GenerateLetter, Status: "Generating your cover letter..."},
}

var fallback = StepDefinition{Name: LastResort, Status: "Generating basic cover letter..."}

// Get returns the definition of the named stage.
func Get(name string) (StepDefinition, bool) {
	if name == LastResort {
		return fallback, true
	}
	for _, def := range Ordered {
		if def.Name == name {
			return def, true
		}
	}
	return StepDefinition{}, false
}
