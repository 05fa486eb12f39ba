package quotes

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type folioSet map[string]struct{}

func (f folioSet) ListFolios(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for folio := range f {
		if strings.HasPrefix(folio, prefix) {
			out = append(out, folio)
		}
	}
	return out, nil
}

func (f folioSet) FolioExists(ctx context.Context, folio string) (bool, error) {
	_, ok := f[folio]
	return ok, nil
}

func TestNextFolioStartsAtOne(t *testing.T) {
	got, err := NextFolio(context.Background(), folioSet{}, "PTCH-")
	require.NoError(t, err)
	assert.Equal(t, "PTCH-0001", got)
}

func TestNextFolioFollowsHighestSuffix(t *testing.T) {
	store := folioSet{
		"PTCH-0001": {},
		"PTCH-0042": {},
		"PTCH-0007": {},
	}
	got, err := NextFolio(context.Background(), store, "PTCH-")
	require.NoError(t, err)
	assert.Equal(t, "PTCH-0043", got)
}

func TestNextFolioIgnoresNonSequentialSuffixes(t *testing.T) {
	store := folioSet{
		"PTCH-0003":           {},
		"PTCH-20240101120000": {}, // timestamp fallback folio
		"PTCH-abc":            {},
		"PTCH-":               {},
	}
	got, err := NextFolio(context.Background(), store, "PTCH-")
	require.NoError(t, err)
	assert.Equal(t, "PTCH-0004", got)
}

// racingStore simulates folios inserted between the listing and the probe:
// they answer FolioExists without showing up in ListFolios.
type racingStore struct {
	listed folioSet
	taken  folioSet
}

func (r racingStore) ListFolios(ctx context.Context, prefix string) ([]string, error) {
	return r.listed.ListFolios(ctx, prefix)
}

func (r racingStore) FolioExists(ctx context.Context, folio string) (bool, error) {
	if _, ok := r.taken[folio]; ok {
		return true, nil
	}
	return r.listed.FolioExists(ctx, folio)
}

func TestNextFolioProbesPastCollisions(t *testing.T) {
	store := racingStore{
		listed: folioSet{"PTCH-0005": {}},
		taken:  folioSet{"PTCH-0006": {}, "PTCH-0007": {}},
	}
	got, err := NextFolio(context.Background(), store, "PTCH-")
	require.NoError(t, err)
	assert.Equal(t, "PTCH-0008", got)
}

func TestNextFolioTimestampFallback(t *testing.T) {
	taken := folioSet{}
	for i := 1; i <= 10; i++ {
		taken[fmt.Sprintf("PTCH-%04d", i)] = struct{}{}
	}
	store := racingStore{listed: folioSet{}, taken: taken}

	got, err := NextFolio(context.Background(), store, "PTCH-")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "PTCH-"))
	suffix := strings.TrimPrefix(got, "PTCH-")
	assert.Len(t, suffix, 14)
	assert.NotContains(t, taken, got)
}
