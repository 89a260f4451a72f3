package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunFlagsRegistered(t *testing.T) {
	for _, name := range []string{"force-auth", "formats", "reports-dir"} {
		require.NotNil(t, runCmd.Flags().Lookup(name), name)
	}
}

func TestApplyReportOverrides(t *testing.T) {
	config := Config{}
	applyDefaults(&config)

	applyReportOverrides(&config, nil, "")
	require.Equal(t, []string{"markdown", "excel", "pdf", "dashboard"}, config.Reports.Formats)
	require.Equal(t, "reports", config.Reports.OutputDir)

	applyReportOverrides(&config, []string{"markdown"}, "out")
	require.Equal(t, []string{"markdown"}, config.Reports.Formats)
	require.Equal(t, "out", config.Reports.OutputDir)
}
