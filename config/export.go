package config

import "github.com/kilianp07/flexbid/pkg/export"

// ExportConfig controls the output tables written after a run.
type ExportConfig struct {
	// Dir is the output directory; empty disables file export.
	Dir    string `json:"dir"`
	Format string `json:"format"`
	// Report also renders an HTML chart page.
	Report bool `json:"report"`
}

func (c *ExportConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = string(export.FormatCSV)
	}
}

func (c ExportConfig) Validate() error {
	_, err := export.ParseFormat(c.Format)
	return err
}
