package quotes

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// folioPattern matches the 4-digit suffix of sequential folios like
// PTCH-0042.
var folioPattern = regexp.MustCompile(`^\d{4}$`)

// FolioStore is the slice of the repository the generator needs.
type FolioStore interface {
	// ListFolios returns every folio starting with the prefix.
	ListFolios(ctx context.Context, prefix string) ([]string, error)
	// FolioExists reports whether the exact folio is already taken.
	FolioExists(ctx context.Context, folio string) (bool, error)
}

// NextFolio picks the next sequential folio: it scans existing folios for the
// highest 4-digit suffix, then probes up to ten candidates above it. When all
// candidates collide it falls back to a timestamp folio, which cannot.
func NextFolio(ctx context.Context, store FolioStore, prefix string) (string, error) {
	folios, err := store.ListFolios(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("list folios: %w", err)
	}

	maxN := 0
	for _, folio := range folios {
		if len(folio) <= len(prefix) {
			continue
		}
		suffix := folio[len(prefix):]
		if !folioPattern.MatchString(suffix) {
			continue
		}
		n, _ := strconv.Atoi(suffix)
		if n > maxN {
			maxN = n
		}
	}

	for i := 1; i <= 10; i++ {
		candidate := fmt.Sprintf("%s%04d", prefix, maxN+i)
		taken, err := store.FolioExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe folio: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return prefix + time.Now().UTC().Format("20060102150405"), nil
}
