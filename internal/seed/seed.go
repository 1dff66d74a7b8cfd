// Package seed loads neutral keywords and reimbursement senders from a YAML
// rules file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"spese-backend/internal/ledger"
	"spese-backend/internal/rules"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File is the rules file layout:
//
//	neutral_keywords:
//	  - Giroconto
//	senders:
//	  - pattern: Mario Rossi
//	    tolerance: 5.00
//	    active: true
type File struct {
	NeutralKeywords []string     `yaml:"neutral_keywords"`
	Senders         []SenderSpec `yaml:"senders"`
}

type SenderSpec struct {
	Pattern   string   `yaml:"pattern"`
	Tolerance *float64 `yaml:"tolerance,omitempty"`
	Active    *bool    `yaml:"active,omitempty"`
}

// Result counts what Apply created and what already existed.
type Result struct {
	KeywordsAdded   int
	KeywordsSkipped int
	SendersAdded    int
	SendersSkipped  int
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return &f, nil
}

// Apply creates every keyword and sender not yet present. Running it twice
// changes nothing the second time.
func Apply(ctx context.Context, svc *rules.Service, f *File) (Result, error) {
	var res Result

	for _, kw := range f.NeutralKeywords {
		_, err := svc.AddKeyword(ctx, kw)
		switch {
		case err == nil:
			res.KeywordsAdded++
		case errors.Is(err, ledger.ErrConflict):
			res.KeywordsSkipped++
		default:
			return res, fmt.Errorf("keyword %q: %w", kw, err)
		}
	}

	for _, s := range f.Senders {
		in := rules.SenderInput{Pattern: s.Pattern, Active: s.Active}
		if s.Tolerance != nil {
			tol := decimal.NewFromFloat(*s.Tolerance).Round(2)
			in.Tolerance = &tol
		}
		_, err := svc.CreateSender(ctx, in)
		switch {
		case err == nil:
			res.SendersAdded++
		case errors.Is(err, ledger.ErrConflict):
			res.SendersSkipped++
		default:
			return res, fmt.Errorf("sender %q: %w", s.Pattern, err)
		}
	}
	return res, nil
}
