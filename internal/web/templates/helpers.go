package templates

import (
	"strconv"
	"strings"
)

const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"422","swap":true},{"code":"[45]..","swap":true,"error":true}]}`

type navItem struct {
	view  View
	href  string
	label string
}

var navItems = []navItem{
	{ViewPredict, "/predict", "Predict Price"},
	{ViewDashboard, "/dashboard", "Tableau Dashboard"},
}

func controlID(name string) string {
	return "field-" + name
}

func datalistID(name string) string {
	return "levels-" + name
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func unseenList(u []UnseenCategory) string {
	parts := make([]string, len(u))
	for i, c := range u {
		parts[i] = c.Field + "=" + strconv.Quote(c.Value)
	}
	return strings.Join(parts, ", ")
}
