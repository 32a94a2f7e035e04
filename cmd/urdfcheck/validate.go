package main

import (
	"fmt"
	"io"

	"github.com/gwillem/urdfcheck/pkg/urdf"
)

// maxMissingShown limits how many missing meshes are listed.
const maxMissingShown = 5

func (a *app) validate() error {
	path := a.cfg.URDFPath()
	fmt.Fprintf(a.stdout, "Validating URDF: %s\n", path)

	v := urdf.NewValidator(a.cfg.Root, a.cfg.Package, a.logger)
	report, err := v.Validate(path)
	if report != nil {
		printReport(a.stdout, report)
	}
	if err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	return nil
}

func printReport(w io.Writer, r *urdf.Report) {
	if r.Robot != "" {
		fmt.Fprintf(w, "  Robot:     %s\n", r.Robot)
	}
	fmt.Fprintf(w, "  Links:     %d\n", r.Links)
	fmt.Fprintf(w, "  Joints:    %d\n", r.Joints)
	fmt.Fprintf(w, "  Materials: %d\n", r.Materials)
	fmt.Fprintf(w, "  Meshes:    %d checked, %d skipped\n", r.Checked, len(r.Skipped))

	if r.OK() {
		fmt.Fprintln(w, successStyle.Render("✓ All mesh files found"))
		return
	}

	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ Missing %d mesh file(s):", len(r.Missing))))
	shown, more := r.Preview(maxMissingShown)
	for _, m := range shown {
		fmt.Fprintf(w, "    %s\n", m.Path)
		fmt.Fprintln(w, dimStyle.Render("      ("+m.Filename+")"))
	}
	if more > 0 {
		fmt.Fprintf(w, "    ... and %d more\n", more)
	}
}
