package templates

import (
	"html/template"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifyFS_ContainsEmailReport(t *testing.T) {
	data, err := fs.ReadFile(NotifyFS(), EmailReport)

	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestTemplates_Parse(t *testing.T) {
	fsys := NotifyFS()

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		_, err := template.New(path).Funcs(template.FuncMap{
			"rowColor": func(string) string { return "" },
		}).ParseFS(fsys, path)
		return err
	})

	require.NoError(t, err)
}
