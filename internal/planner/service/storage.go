package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// ============================================================
// Export Storage
// ============================================================

type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) PlanDir(planID string) string {
	return filepath.Join(s.root, planID)
}

// ExportPath — один файл на формат, новый экспорт перезаписывает старый.
func (s *FileStorage) ExportPath(planID, format string) string {
	return filepath.Join(s.PlanDir(planID), "plan."+format)
}

func (s *FileStorage) EnsureDir(planID string) error {
	path := s.PlanDir(planID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir plan dir: %w", err)
	}
	return nil
}

func (s *FileStorage) SaveExport(planID, format string, data []byte) (string, error) {
	if err := s.EnsureDir(planID); err != nil {
		return "", err
	}
	target := s.ExportPath(planID, format)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return target, nil
}
