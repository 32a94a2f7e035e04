package urdf

import (
	"fmt"
	"os"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MeshRef is a mesh reference and the path it resolved to.
type MeshRef struct {
	Filename string
	Path     string
}

// Report summarises a validation run.
type Report struct {
	Path      string
	Robot     string
	Links     int
	Joints    int
	Materials int
	Meshes    int // mesh elements carrying a filename
	Checked   int // references resolved and checked on disk
	Skipped   []string
	Missing   []MeshRef
	Model     *Model // nil when the typed decode failed
}

// OK reports whether every checked mesh exists.
func (r *Report) OK() bool {
	return len(r.Missing) == 0
}

// Preview returns at most n missing references and how many were left out.
func (r *Report) Preview(n int) ([]MeshRef, int) {
	if n < 0 {
		n = 0
	}
	if len(r.Missing) <= n {
		return r.Missing, 0
	}
	return r.Missing[:n], len(r.Missing) - n
}

// Validator checks a URDF file and the mesh files it references.
type Validator struct {
	root   string
	pkg    string
	logger zerolog.Logger
}

// NewValidator creates a validator resolving package://<pkg>/ references against root.
func NewValidator(root, pkg string, logger zerolog.Logger) *Validator {
	return &Validator{
		root:   root,
		pkg:    pkg,
		logger: logger,
	}
}

// Validate parses path and checks its mesh references. A non-nil report is returned
// whenever the XML parsed, including when meshes are missing (ErrMissingMeshes).
func (v *Validator) Validate(path string) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, path)
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.Wrap(ErrMalformed, "no root element")
	}

	report := &Report{
		Path:      path,
		Robot:     root.SelectAttrValue("name", ""),
		Links:     len(doc.FindElements("//link")),
		Joints:    len(doc.FindElements("//joint")),
		Materials: len(doc.FindElements("//material")),
	}

	// The typed model only feeds the engines; a URDF it cannot decode is still valid XML.
	if model, err := Parse(data); err != nil {
		v.logger.Debug().Err(err).Str("path", path).Msg("typed URDF decode failed")
	} else {
		report.Model = model
	}
	v.logger.Debug().
		Str("path", path).
		Int("links", report.Links).
		Int("joints", report.Joints).
		Int("materials", report.Materials).
		Msg("parsed URDF")

	for _, mesh := range doc.FindElements("//mesh") {
		filename := mesh.SelectAttrValue("filename", "")
		if filename == "" {
			continue
		}
		report.Meshes++

		resolved, ok := ResolveMesh(filename, v.pkg, v.root)
		if !ok {
			v.logger.Debug().Str("filename", filename).Msg("mesh reference outside package, not checked")
			report.Skipped = append(report.Skipped, filename)
			continue
		}
		report.Checked++
		if _, err := os.Stat(resolved); err != nil {
			v.logger.Debug().Str("filename", filename).Str("path", resolved).Err(err).Msg("mesh missing")
			report.Missing = append(report.Missing, MeshRef{Filename: filename, Path: resolved})
		}
	}

	if !report.OK() {
		return report, errors.Wrapf(ErrMissingMeshes, "%d of %d", len(report.Missing), report.Checked)
	}
	return report, nil
}
