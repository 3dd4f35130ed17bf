package models

// TaxGroup binds a register tax code to the letter printed on fiscal reports.
type TaxGroup struct {
	Code  string
	Label string
}

// TaxGroups is the fixed code table in canonical output order.
var TaxGroups = []TaxGroup{
	{Code: "1", Label: "А"},
	{Code: "2", Label: "Б"},
	{Code: "3", Label: "В"},
	{Code: "4", Label: "Г"},
	{Code: "5", Label: "Д"},
	{Code: "6", Label: "Е"},
	{Code: "7", Label: "Ж"},
	{Code: "8", Label: "З"},
}

// LabelFor returns the label of a tax code and whether the code is known.
func LabelFor(code string) (string, bool) {
	for _, g := range TaxGroups {
		if g.Code == code {
			return g.Label, true
		}
	}
	return "", false
}
