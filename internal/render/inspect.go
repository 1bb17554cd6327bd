package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info describes a rendered document
type Info struct {
	Pages int `json:"pages"`
	Size  int `json:"size_bytes"`
}

var disableConfigDir sync.Once

// Inspect validates data as a PDF and counts its pages
func Inspect(data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("inspect: empty document")
	}

	// pdfcpu otherwise writes its config under the user's home directory
	disableConfigDir.Do(api.DisableConfigDir)

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return nil, fmt.Errorf("inspect: invalid PDF: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("inspect: count pages: %w", err)
	}

	return &Info{Pages: pages, Size: len(data)}, nil
}
