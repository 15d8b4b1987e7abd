package migrations

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icpep-backend/internal/logger"
)

func TestInitializeRejectsMissingDir(t *testing.T) {
	r := NewRunner(nil, Options{MigrationsDir: filepath.Join(t.TempDir(), "nope")}, logger.Discard())
	err := r.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.NoError(t, r.Close())
}

func TestInitializeRequiresDatabase(t *testing.T) {
	r := NewRunner(nil, Options{MigrationsDir: t.TempDir()}, logger.Discard())
	assert.Error(t, r.Up())
}

// Every up migration in the repo needs a matching down file.
func TestMigrationFilesArePaired(t *testing.T) {
	entries, err := os.ReadDir("../../../migrations")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)

	var names []string
	for n := range ups {
		names = append(names, n)
		assert.True(t, downs[n], "missing down migration for %s", n)
	}
	sort.Strings(names)
	assert.True(t, strings.HasPrefix(names[0], "000001_"))
}
