package scaffold

import (
	"context"
	"fmt"
	"strings"
)

// CopyrightHolder is the generic holder named in generated headers.
const CopyrightHolder = "The Project Authors"

// LicenseProducer renders the LICENSE file contents.
type LicenseProducer interface {
	// Kind is "full-text" or "minimal-header".
	Kind() string
	Render(year int) []byte
}

// Fetcher retrieves license text from the network.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SelectLicense fetches the license text and returns the full-text
// producer, or the minimal-header producer plus the fetch error when the
// fetch fails or returns nothing. It never fails on its own.
func SelectLicense(ctx context.Context, f Fetcher, url, spdxID string) (LicenseProducer, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return minimalLicense{id: spdxID}, err
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return minimalLicense{id: spdxID}, fmt.Errorf("license endpoint %s returned an empty body", url)
	}
	return fullTextLicense{text: text}, nil
}

type fullTextLicense struct {
	text string
}

func (l fullTextLicense) Kind() string { return "full-text" }

func (l fullTextLicense) Render(year int) []byte {
	return []byte(copyrightHeader(year) + "\n\n" + l.text + "\n")
}

type minimalLicense struct {
	id string
}

func (l minimalLicense) Kind() string { return "minimal-header" }

func (l minimalLicense) Render(year int) []byte {
	return []byte(copyrightHeader(year) + "\n\nSPDX-License-Identifier: " + l.id + "\n")
}

func copyrightHeader(year int) string {
	return fmt.Sprintf("Copyright (c) %d %s", year, CopyrightHolder)
}
