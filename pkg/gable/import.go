package gable

import (
	"context"
	"fmt"
	"os"

	"github.com/ukaji3/gable-go/internal/logging"
	"github.com/ukaji3/gable-go/pkg/gable/models"
	"github.com/ukaji3/gable-go/pkg/gable/parser"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// Import converts every sheet of the workbook at path into a .gable file
// under destDir and returns the written paths. lk, when non-nil, resolves
// enum descriptions to values.
func Import(ctx context.Context, path string, shape models.Shape, destDir string, lk *sheet.Lookup) ([]string, error) {
	logger := logging.FromContext(ctx).With("path", path, "shape", shape.String())

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wb, err := parser.ReadWorkbook(path, shape, lk)
	if err != nil {
		logger.Error("import failed", "error", err)
		return nil, err
	}
	paths, err := parser.WriteWorkbook(destDir, wb)
	if err != nil {
		logger.Error("import failed", "error", err)
		return paths, err
	}
	logger.Info("import successful", "tables", len(paths))
	return paths, nil
}
