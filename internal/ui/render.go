// Package ui renders check reports and export results as text, json or yaml.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dephub/pipcheck/internal/config"
	"github.com/dephub/pipcheck/pipcheck"
	"github.com/dephub/pipcheck/providers/versioneer"
)

// SuccessMessage is printed by a check that found nothing.
const SuccessMessage = "No version conflict or missing packages/dependencies found in setup.py!"

// ReportView is the serialized form of a report.
type ReportView struct {
	Package       string `json:"package" yaml:"package"`
	Kind          string `json:"kind" yaml:"kind"`
	Verdict       string `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Declared      string `json:"declared,omitempty" yaml:"declared,omitempty"`
	Authoritative string `json:"authoritative,omitempty" yaml:"authoritative,omitempty"`
	Message       string `json:"message" yaml:"message"`
}

// Renderer writes results to Out in the configured format.
type Renderer struct {
	Out       io.Writer
	Format    string
	Formatter pipcheck.Formatter
	Styles    Styles
}

// NewRenderer returns a renderer using the default report labels.
func NewRenderer(out io.Writer, format string, noColor bool) *Renderer {
	return &Renderer{
		Out:       out,
		Format:    format,
		Formatter: pipcheck.DefaultFormatter,
		Styles:    NewStyles(noColor),
	}
}

// Reports writes the reports of one check run.
func (r *Renderer) Reports(reports []pipcheck.Report) error {
	views, err := r.views(reports)
	if err != nil {
		return err
	}

	switch r.Format {
	case config.FormatJSON:
		return r.json(views)
	case config.FormatYAML:
		return r.yaml(views)
	}

	if len(views) == 0 {
		_, err := fmt.Fprintln(r.Out, r.Styles.Success.Render(iconOK+" "+SuccessMessage))
		return err
	}
	var b strings.Builder
	for i, v := range views {
		icon := r.Styles.Danger.Render(iconConflict)
		if reports[i].Verdict == versioneer.Potential || reports[i].Verdict == versioneer.Compatible {
			icon = r.Styles.Warning.Render(iconWarning)
		}
		fmt.Fprintf(&b, "%s %s %s\n  %s\n", icon, r.Styles.Package.Render(v.Package), r.Styles.Kind.Render("("+v.Kind+")"), v.Message)
	}
	_, err = io.WriteString(r.Out, b.String())
	return err
}

// Exported writes export results. Text output is a python snippet ready to paste into setup().
func (r *Renderer) Exported(e pipcheck.Exported) error {
	switch r.Format {
	case config.FormatJSON:
		return r.json(e)
	case config.FormatYAML:
		return r.yaml(e)
	}

	var b strings.Builder
	writeList(&b, "install_requires", e.InstallRequires)
	if len(e.DependencyLinks) > 0 {
		writeList(&b, "dependency_links", e.DependencyLinks)
	}
	if len(e.ExtrasRequire) > 0 {
		extras := make([]string, 0, len(e.ExtrasRequire))
		for name := range e.ExtrasRequire {
			extras = append(extras, name)
		}
		sort.Strings(extras)
		b.WriteString("extras_require={\n")
		for _, name := range extras {
			fmt.Fprintf(&b, "    %q: [\n", name)
			for _, v := range e.ExtrasRequire[name] {
				fmt.Fprintf(&b, "        %q,\n", v)
			}
			b.WriteString("    ],\n")
		}
		b.WriteString("},\n")
	}
	for _, name := range e.Skipped {
		fmt.Fprintf(&b, "%s\n", r.Styles.Muted.Render(fmt.Sprintf("# %s local package %s skipped", iconSkipped, name)))
	}
	_, err := io.WriteString(r.Out, b.String())
	return err
}

// Error writes a failure line.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.Out, r.Styles.Danger.Render(iconConflict+" "+err.Error()))
}

func (r *Renderer) views(reports []pipcheck.Report) ([]ReportView, error) {
	views := make([]ReportView, 0, len(reports))
	for _, rep := range reports {
		msg, err := r.Formatter.Format(rep)
		if err != nil {
			return nil, err
		}
		v := ReportView{
			Package:       rep.Package,
			Kind:          rep.Kind.String(),
			Declared:      rep.Declared,
			Authoritative: rep.Authoritative,
			Message:       msg,
		}
		if rep.Kind == pipcheck.VersionConflict {
			v.Verdict = rep.Verdict.String()
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.Out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeList(b *strings.Builder, key string, values []string) {
	fmt.Fprintf(b, "%s=[\n", key)
	for _, v := range values {
		fmt.Fprintf(b, "    %q,\n", v)
	}
	b.WriteString("],\n")
}
