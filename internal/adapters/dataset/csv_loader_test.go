package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/emiliopalmerini/mhouse/internal/domain"
)

const trainCSV = `Id,MSSubClass,MSZoning,LotFrontage,GrLivArea,Neighborhood,Alley,SalePrice
1,60,RL,65,1710,CollgCr,NA,208500
2,20,RL,80,1262,Veenker,NA,181500
3,60,RM,NA,1786,CollgCr,Grvl,223500
`

var defaultCfg = Config{TargetColumn: "SalePrice", IDColumn: "Id"}

func TestReadSchema_InfersKinds(t *testing.T) {
	schema, err := ReadSchema(context.Background(), strings.NewReader(trainCSV), defaultCfg)
	require.NoError(t, err)

	want := []domain.Feature{
		{Name: "MSSubClass", Kind: domain.KindNumeric},
		{Name: "MSZoning", Kind: domain.KindCategorical},
		{Name: "LotFrontage", Kind: domain.KindNumeric},
		{Name: "GrLivArea", Kind: domain.KindNumeric},
		{Name: "Neighborhood", Kind: domain.KindCategorical},
		{Name: "Alley", Kind: domain.KindCategorical},
	}
	assert.Equal(t, want, schema.Features())
}

func TestReadSchema_TemplateHasOneEntryPerColumn(t *testing.T) {
	schema, err := ReadSchema(context.Background(), strings.NewReader(trainCSV), defaultCfg)
	require.NoError(t, err)

	row := domain.NewTemplate(schema).Row()
	assert.Len(t, row, 6)
	assert.Equal(t, domain.Categorical(domain.CategoricalPlaceholder), row["MSZoning"])
	assert.Equal(t, domain.Numeric(0), row["LotFrontage"])
}

func TestReadSchema_AllMissingColumnIsNumeric(t *testing.T) {
	data := "Id,PoolQC,SalePrice\n1,NA,1\n2,,2\n"
	schema, err := ReadSchema(context.Background(), strings.NewReader(data), defaultCfg)
	require.NoError(t, err)

	f, ok := schema.Lookup("PoolQC")
	require.True(t, ok)
	assert.Equal(t, domain.KindNumeric, f.Kind)
}

func TestReadSchema_StripsBOMAndHonoursDelimiter(t *testing.T) {
	data := "\ufeffId;Street;SalePrice\n1;Pave;100\n"
	cfg := defaultCfg
	cfg.Delimiter = ';'

	schema, err := ReadSchema(context.Background(), strings.NewReader(data), cfg)
	require.NoError(t, err)
	assert.Equal(t, []domain.Feature{{Name: "Street", Kind: domain.KindCategorical}}, schema.Features())
}

func TestReadSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing target", "Id,GrLivArea\n1,100\n"},
		{"missing id", "GrLivArea,SalePrice\n100,1\n"},
		{"ragged row", "Id,GrLivArea,SalePrice\n1,100\n"},
		{"duplicate column", "Id,A,A,SalePrice\n1,2,3,4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSchema(context.Background(), strings.NewReader(tt.data), defaultCfg)
			assert.True(t, errors.Is(err, domain.ErrDataLoad), "expected DataLoadError, got %v", err)
		})
	}
}

func TestLoader_LoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(trainCSV), 0o644))

	cfg := defaultCfg
	cfg.Path = path
	loader := NewLoader(cfg, zaptest.NewLogger(t))

	first, err := loader.Load(context.Background())
	require.NoError(t, err)

	// Later edits are not observed: the schema is cached for the process.
	require.NoError(t, os.WriteFile(path, []byte("Id,SalePrice\n"), 0o644))
	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoader_MissingFile(t *testing.T) {
	cfg := defaultCfg
	cfg.Path = filepath.Join(t.TempDir(), "missing.csv")
	loader := NewLoader(cfg, zaptest.NewLogger(t))

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrDataLoad)

	_, again := loader.Load(context.Background())
	assert.Equal(t, err, again, "failure is cached")
}

func writeLargeCSV(t *testing.T, rows int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("Id,GrLivArea,Neighborhood,SalePrice\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&sb, "%d,%d,NAmes,%d\n", i, 1000+i, 100000+i)
	}
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestLoader_CancelledFirstCallerDoesNotPoisonCache(t *testing.T) {
	cfg := defaultCfg
	cfg.Path = writeLargeCSV(t, 2000)
	loader := NewLoader(cfg, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())

	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoader_ConcurrentFirstUse(t *testing.T) {
	cfg := defaultCfg
	cfg.Path = writeLargeCSV(t, 1500)
	loader := NewLoader(cfg, zaptest.NewLogger(t))

	const callers = 16
	results := make([]*domain.Schema, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = loader.Load(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}
