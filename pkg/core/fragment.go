package core

// ChartConfig is a persisted, named reusable configuration fragment.
// Config holds loosely formatted object-literal source; only the parsed
// result is ever injected into templates.
type ChartConfig struct {
	Name   string `json:"name" yaml:"name"`
	Config string `json:"config" yaml:"config"`
}

// DefaultChartConfigs are seeded into an empty fragment store.
var DefaultChartConfigs = []ChartConfig{
	{
		Name: "defaultTheme",
		Config: `{
  backgroundColor: "#ffffff",
  textStyle: {
    color: "#333333",
    fontFamily: "Arial, sans-serif"
  }
}`,
	},
	{
		Name: "pieChart",
		Config: `{
  type: "pie",
  radius: "70%",
  emphasis: {
    itemStyle: {
      shadowBlur: 10,
      shadowOffsetX: 0,
      shadowColor: "rgba(0, 0, 0, 0.5)"
    }
  }
}`,
	},
}
