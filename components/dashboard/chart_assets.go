package dashboard

import (
	"os"
	"strings"
)

// EnvChartAssetsHost overrides where rendered charts load the ECharts runtime
// from, e.g. a CDN or a self-hosted bucket.
const EnvChartAssetsHost = "LOI_DASHBOARD_ECHARTS_CDN"

// ChartAssetsHost returns the assets host from the environment, or an empty
// string to keep the go-echarts default.
func ChartAssetsHost() string {
	return ensureTrailingSlash(strings.TrimSpace(os.Getenv(EnvChartAssetsHost)))
}

func ensureTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
