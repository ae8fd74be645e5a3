package dto

// ChartDataset is one Chart.js dataset.
type ChartDataset struct {
	Label                string   `json:"label,omitempty"`
	Data                 []int    `json:"data"`
	BackgroundColor      any      `json:"backgroundColor,omitempty"`
	BorderColor          string   `json:"borderColor,omitempty"`
	HoverBackgroundColor []string `json:"hoverBackgroundColor,omitempty"`
	BorderWidth          int      `json:"borderWidth,omitempty"`
	Fill                 *bool    `json:"fill,omitempty"`
	Tension              float64  `json:"tension,omitempty"`
}

// ChartData is the data object handed to a Chart.js chart.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ActivityRow is one line of the dashboard's current activity table.
type ActivityRow struct {
	Timestamp string `json:"timestamp"`
	Activity  string `json:"activity"`
}

// DashboardCharts holds the presentational chart content of the dashboard page.
type DashboardCharts struct {
	Bar      ChartData     `json:"bar"`
	Line     ChartData     `json:"line"`
	Pie      ChartData     `json:"pie"`
	Activity []ActivityRow `json:"activity"`
}
