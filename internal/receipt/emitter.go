// Package receipt renders settled receipts into a durable external
// sink, one file per receipt, for audit purposes.
package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"shop-service/internal/models"
)

// Emitter is the durable sink for completed settlements
type Emitter interface {
	Emit(ctx context.Context, receipt *models.Receipt) error
}

// FileEmitter writes one text file per receipt into a directory
type FileEmitter struct {
	dir string
}

// NewFileEmitter ensures the target directory exists
func NewFileEmitter(dir string) (*FileEmitter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipts directory: %w", err)
	}
	return &FileEmitter{dir: dir}, nil
}

// Emit writes the receipt's rendered text to receipt-<id>.txt
func (e *FileEmitter) Emit(_ context.Context, receipt *models.Receipt) error {
	path := filepath.Join(e.dir, fmt.Sprintf("receipt-%s.txt", receipt.ID))
	if err := os.WriteFile(path, []byte(receipt.Render()), 0o644); err != nil {
		return fmt.Errorf("failed to write receipt file: %w", err)
	}
	return nil
}
