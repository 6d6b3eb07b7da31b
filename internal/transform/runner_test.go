package transform

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/tabular"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/tags"
)

const constituentHeader = "Patron ID,First Name,Last Name,Date Entered,Primary Email,Company,Salutation,Title,Tags,Gender"

func writeFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Input: config.InputFiles{
			Constituents: filepath.Join(dir, "InputConstituents.csv"),
			Emails:       filepath.Join(dir, "InputEmails.csv"),
			Donations:    filepath.Join(dir, "InputDonationHistory.csv"),
		},
		Output: config.OutputFiles{
			Dir:          filepath.Join(dir, "output"),
			Constituents: "CueBoxConstituents.csv",
			Tags:         "CueBoxTags.csv",
		},
		InvalidCompanyValues: config.DefaultInvalidCompanyValues(),
	}

	writeFile(t, cfg.Input.Constituents,
		constituentHeader,
		`1,john,doe,"Jan 15, 2020",john@example.com,,Mr,Engineer,"Board Member, Top Donor",Married`,
		`2,,,2020-02-01,info@acme.com,Acme Corp.,,,Top Donor,`,
		`3,sue,SMITH,,sue@yaho.com,N/A,Rev.,,,`,
	)
	writeFile(t, cfg.Input.Emails,
		"Patron ID,Email",
		"1,john.work@example.com",
		"1,JOHN@example.com",
	)
	writeFile(t, cfg.Input.Donations,
		"Patron ID,Donation Amount,Donation Date,Status",
		`1,$100.00,2023-01-15,Paid`,
		`1,$50.00,2023-03-10,Refunded`,
		`1,$25.00,2023-06-20,Paid`,
		`3,$40.00,2019-03-01,Paid`,
		`99,$15.00,2022-01-01,Paid`,
	)

	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, zap.NewNop())
	runner.FetchMapping = func() (tags.Mapping, error) {
		return tags.Mapping{"Top Donor": "Major Donor"}, nil
	}

	result, err := runner.Run(false)
	require.NoError(t, err)

	// Strict 1:1 row correspondence with identifiers reused verbatim.
	out, err := tabular.Read(result.ConstituentsPath)
	require.NoError(t, err)
	require.Equal(t, 3, out.RowCount())
	assert.Equal(t, "1", out.Rows[0][OutID])
	assert.Equal(t, "2", out.Rows[1][OutID])
	assert.Equal(t, "3", out.Rows[2][OutID])

	// Row 1: person with donations, corrected emails, mapped tags.
	assert.Equal(t, TypePerson, out.Rows[0][OutType])
	assert.Equal(t, "John", out.Rows[0][OutFirstName])
	assert.Equal(t, "2020-01-15T00:00:00", out.Rows[0][OutCreatedAt])
	assert.Equal(t, "john@example.com", out.Rows[0][OutEmail1])
	assert.Equal(t, "john.work@example.com", out.Rows[0][OutEmail2])
	assert.Equal(t, "Board Member, Major Donor", out.Rows[0][OutTags])
	assert.Equal(t, "$125.00", out.Rows[0][OutLifetimeAmount])
	assert.Equal(t, "2023-06-20", out.Rows[0][OutRecentDate])
	assert.Equal(t, "$25.00", out.Rows[0][OutRecentAmount])

	// Row 2: company record.
	assert.Equal(t, TypeCompany, out.Rows[1][OutType])
	assert.Equal(t, "Acme Corp.", out.Rows[1][OutCompanyName])
	assert.Equal(t, "", out.Rows[1][OutFirstName])

	// Row 3: "N/A" company classifies as Person; created-at falls back to
	// the earliest qualifying donation; "Rev." maps to no title.
	assert.Equal(t, TypePerson, out.Rows[2][OutType])
	assert.Equal(t, "2019-03-01T00:00:00", out.Rows[2][OutCreatedAt])
	assert.Equal(t, "", out.Rows[2][OutTitle])
	assert.Equal(t, "sue@yahoo.com", out.Rows[2][OutEmail1])

	// Tag table: canonical names with per-constituent counts, sorted.
	tagOut, err := tabular.Read(result.TagsPath)
	require.NoError(t, err)
	require.Equal(t, 2, tagOut.RowCount())
	assert.Equal(t, "Board Member", tagOut.Rows[0][tags.ColTagName])
	assert.Equal(t, "1", tagOut.Rows[0][tags.ColTagCount])
	assert.Equal(t, "Major Donor", tagOut.Rows[1][tags.ColTagName])
	assert.Equal(t, "2", tagOut.Rows[1][tags.ColTagCount])

	// The orphaned donation for the unknown patron is reported, not silent.
	assert.Equal(t, 1, result.Stats.OrphanedDonations)
	require.NotEmpty(t, result.Diagnostics)
	found := false
	for _, d := range result.Diagnostics {
		if strings.Contains(d.Message, "99") {
			found = true
		}
	}
	assert.True(t, found, "orphan diagnostic should name the patron identifier")
}

func TestRunTagLookupFailureDegradesToIdentity(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, zap.NewNop())
	runner.FetchMapping = func() (tags.Mapping, error) {
		return nil, errors.New("connection refused")
	}

	result, err := runner.Run(false)
	require.NoError(t, err)

	out, err := tabular.Read(result.ConstituentsPath)
	require.NoError(t, err)
	assert.Equal(t, "Board Member, Top Donor", out.Rows[0][OutTags], "tags pass through unchanged")

	warned := false
	for _, d := range result.Diagnostics {
		if strings.Contains(d.Message, "tag mapping lookup failed") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, zap.NewNop())
	runner.FetchMapping = func() (tags.Mapping, error) { return nil, nil }

	result, err := runner.Run(true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.ConstituentsWritten)
	assert.Empty(t, result.ConstituentsPath)
	assert.NoFileExists(t, cfg.ConstituentsOutputPath())
	assert.NoFileExists(t, cfg.TagsOutputPath())
}

func TestRunMissingInputTableIsFatal(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(cfg.Input.Donations))

	runner := NewRunner(cfg, zap.NewNop())
	runner.FetchMapping = func() (tags.Mapping, error) { return nil, nil }

	_, err := runner.Run(false)
	assert.Error(t, err)
}

func TestRunEmptyPatronIDAbortsBeforeOutput(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Input.Constituents,
		constituentHeader,
		`1,john,doe,2020-01-01,j@example.com,,,,,`,
		`,jane,doe,2020-01-01,j2@example.com,,,,,`,
	)

	runner := NewRunner(cfg, zap.NewNop())
	runner.FetchMapping = func() (tags.Mapping, error) { return nil, nil }

	_, err := runner.Run(false)
	require.Error(t, err)
	assert.NoFileExists(t, cfg.ConstituentsOutputPath(), "no output may exist after a structural failure")
	assert.NoFileExists(t, cfg.TagsOutputPath())
}
