package config

import (
	"fmt"
	"strings"

	"github.com/jchantrell/quakefs/internal/filesys"
)

// validateGame ensures the game override names a single directory under
// the base directory. An empty game means no override.
func validateGame(game string) error {
	if game == "" {
		return nil
	}

	if game == "." || game == ".." || strings.ContainsAny(game, `/\`) {
		return fmt.Errorf("invalid game '%s': must be a single directory name", game)
	}

	if strings.EqualFold(game, filesys.BaseGame) {
		return fmt.Errorf("invalid game '%s': %s is always on the search path", game, filesys.BaseGame)
	}

	return nil
}

// validatePath rejects empty entries in an explicit search path
func validatePath(path []string) error {
	for i, p := range path {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("path entry %d cannot be empty", i)
		}
	}
	return nil
}
