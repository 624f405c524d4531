package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/file"
)

func TestLoadAliasesMergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "aliases:\n  dm: Dark Magician\n  blue eyes white dragon: Blue-Eyes White Dragon (Alt)\n"
	if err := os.WriteFile(filepath.Join(dir, "aliases.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write aliases: %v", err)
	}

	aliases, err := file.NewLocalSource(dir).LoadAliases(context.Background(), "aliases.yaml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got, ok := aliases.Lookup("dm"); !ok || got != "Dark Magician" {
		t.Fatalf("expected custom alias, got %q %v", got, ok)
	}
	if got, _ := aliases.Lookup("blue eyes white dragon"); got != "Blue-Eyes White Dragon (Alt)" {
		t.Fatalf("expected file to override default, got %q", got)
	}
	if aliases.Len() < cardname.DefaultAliases().Len() {
		t.Fatalf("expected defaults to be kept, got %d entries", aliases.Len())
	}
}

func TestLoadAliasesMissingFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	aliases, err := file.NewLocalSource(t.TempDir()).LoadAliases(context.Background(), "missing.yaml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if aliases.Len() != cardname.DefaultAliases().Len() {
		t.Fatalf("expected default table, got %d entries", aliases.Len())
	}
}

func TestLoadAliasesRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aliases.yaml"), []byte("aliases: [not, a, map]\n"), 0o600); err != nil {
		t.Fatalf("write aliases: %v", err)
	}

	if _, err := file.NewLocalSource(dir).LoadAliases(context.Background(), "aliases.yaml"); err == nil {
		t.Fatal("expected error")
	}
}
