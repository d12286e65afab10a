// Package generate writes synthetic lead datasets with a known mix of clean,
// repairable and unrepairable rows.
package generate

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/io/local"
	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/schema"
)

const (
	DefaultSize = 50
	MinSize     = 10
	MaxSize     = 10000
	DefaultPath = "examples/sample_leads.csv"
)

var ErrSize = fmt.Errorf("size must be between %d and %d", MinSize, MaxSize)

type Options struct {
	Size int
	// Seed makes output reproducible. Zero picks a random seed.
	Seed uint64
}

// Distribution is how many rows of each kind a dataset holds.
type Distribution struct {
	Clean     int
	Fixable   int
	Unfixable int
}

// Split divides size 60/30/10; rounding leftovers go to Unfixable.
func Split(size int) Distribution {
	clean := size * 60 / 100
	fixable := size * 30 / 100
	return Distribution{Clean: clean, Fixable: fixable, Unfixable: size - clean - fixable}
}

var (
	cleanNames = []string{
		"Alice Johnson", "Bob Smith", "Carol Davis", "David Brown",
		"Emma Wilson", "Frank Miller", "Grace Lee", "Henry Taylor",
	}
	cleanCountries = []string{"US", "GB", "DE", "FR", "JP", "AU", "CA", "ES"}
)

// fixable rows each carry one or more issues a repairer can resolve.
var fixable = []lead.RawRow{
	{"name": "John Doe", "email": "john@example.com", "country_code": "USA", "segment": "Enterprise", "contract_value": "50000"},
	{"name": "Jane Smith", "email": "jane@example.com", "country_code": "usa", "segment": "Mid-Market", "contract_value": "30000"},
	{"name": "Mike Johnson", "email": "mike@test.com", "country_code": "United States", "segment": "SMB", "contract_value": "15000"},
	{"name": "Sarah Wilson", "email": "sarah@test.com", "country_code": "UK", "segment": "Enterprise", "contract_value": "120000"},
	{"name": "Tom Brown", "email": "tom@example.com", "country_code": "germany", "segment": "Mid-Market", "contract_value": "45000"},
	{"name": "alice cooper", "email": "alice@example.com", "country_code": "US", "segment": "SMB", "contract_value": "12000"},
	{"name": "BOB MARLEY", "email": "bob@music.com", "country_code": "GB", "segment": "Enterprise", "contract_value": "95000"},
	{"name": "charlie chaplin", "email": "charlie@film.com", "country_code": "FR", "segment": "Mid-Market", "contract_value": "38000"},
	{"name": "Diana Prince", "email": "diana@corp.com", "country_code": "US", "segment": "small business", "contract_value": "8000"},
	{"name": "Eric Cartman", "email": "eric@southpark.com", "country_code": "US", "segment": "enterprise", "contract_value": "150000"},
	{"name": "Fiona Apple", "email": "fiona@music.com", "country_code": "US", "segment": "Mid-Market", "contract_value": "$45,000", "industry": "tech"},
	{"name": "helen mirren", "email": "HELEN@EXAMPLE.COM", "country_code": "uk", "segment": "enterprise", "contract_value": "$105,000"},
	{"name": "IVAN DRAGO", "email": "ivan@boxing.ru", "country_code": "russia", "segment": "mid-market", "contract_value": "52000"},
	{"name": "Pierre Dubois", "email": "pierre@bistro.fr", "sales_notes": "Lunch meeting in Paris with the bakery owner, budget around 5000 EUR"},
	{"name": "Kenji Sato", "email": "kenji@mizuho.jp", "sales_notes": "Mizuho Bank branch in Tokyo wants a trading dashboard, 5,000,000 Yen"},
	{"name": "Olivia Hart", "email": "olivia@clinic.co.uk", "sales_notes": "Small practice dental clinic in London, 10,000 GBP per year"},
	{"name": "Liam Walsh", "email": "liam@cloudco.com", "sales_notes": "Silicon Valley SaaS startup, $150k annual contract"},
	{"name": "Mia Klein", "email": "mia@shopnet.de", "sales_notes": "E-commerce boutique in Berlin, about 80,000 EUR"},
	{"name": "Noah Grant", "email": "noah@harbour.com.au", "sales_notes": "Hospital network in Sydney, multi-site rollout worth 200,000 AUD"},
}

// unfixable rows miss evidence no repairer may invent.
var unfixable = []lead.RawRow{
	{"name": "", "email": "noname@test.com", "country_code": "US", "segment": "Enterprise", "contract_value": "50000"},
	{"name": "Invalid Email", "email": "not-an-email", "country_code": "US", "segment": "SMB", "contract_value": "10000"},
	{"name": "Negative Value", "email": "negative@test.com", "country_code": "US", "segment": "Mid-Market", "contract_value": "-5000"},
	{"name": "Bad Country", "email": "bad@test.com", "country_code": "ZZZ", "segment": "Enterprise", "contract_value": "75000"},
	{"name": "Missing Data", "email": "", "country_code": "", "segment": "", "contract_value": "0"},
}

// Rows builds the dataset in memory. Ids run from 1 in file order: clean rows
// first, then fixable, then unfixable.
func Rows(opts Options) ([]lead.RawRow, Distribution, error) {
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	if opts.Size < MinSize || opts.Size > MaxSize {
		return nil, Distribution{}, fmt.Errorf("%w, got %d", ErrSize, opts.Size)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	d := Split(opts.Size)
	rows := make([]lead.RawRow, 0, opts.Size)
	id := 0
	next := func() string {
		id++
		return strconv.Itoa(id)
	}

	for range d.Clean {
		n := next()
		rows = append(rows, lead.RawRow{
			lead.ColID:            n,
			lead.ColName:          cleanNames[rng.IntN(len(cleanNames))],
			lead.ColEmail:         "user" + n + "@company.com",
			lead.ColCountryCode:   cleanCountries[rng.IntN(len(cleanCountries))],
			lead.ColIndustry:      string(lead.Industries()[rng.IntN(len(lead.Industries()))]),
			lead.ColSegment:       string(lead.Segments()[rng.IntN(len(lead.Segments()))]),
			lead.ColContractValue: strconv.Itoa(10000+rng.IntN(190001)) + ".00",
		})
	}
	rows = appendCycled(rows, fixable, d.Fixable, next)
	rows = appendCycled(rows, unfixable, d.Unfixable, next)
	return rows, d, nil
}

// appendCycled appends n rows from pool, wrapping around as needed.
func appendCycled(rows []lead.RawRow, pool []lead.RawRow, n int, nextID func() string) []lead.RawRow {
	for i := range n {
		r := make(lead.RawRow, len(pool[i%len(pool)])+1)
		for k, v := range pool[i%len(pool)] {
			r[k] = v
		}
		r[lead.ColID] = nextID()
		rows = append(rows, r)
	}
	return rows
}

// Header is the column order of generated files.
func Header() []string {
	return schema.LeadContract(schema.VariantSemantic).Columns()
}

// Write generates a dataset and writes it as CSV.
func Write(w io.Writer, opts Options) (Distribution, error) {
	rows, d, err := Rows(opts)
	if err != nil {
		return Distribution{}, err
	}
	records := make([]map[string]string, len(rows))
	for i, r := range rows {
		records[i] = r
	}
	if err := local.WriteRecordsCSV(w, Header(), records); err != nil {
		return Distribution{}, err
	}
	return d, nil
}

// WriteFile writes a dataset to path, creating parent directories.
func WriteFile(path string, opts Options) (d Distribution, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Distribution{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return Distribution{}, err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return Write(f, opts)
}
