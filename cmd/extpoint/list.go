package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/extpoint"
)

// =============================================================================
// 📋 list 命令
// =============================================================================

func newListCmd(catalog *extpoint.Catalog) *cobra.Command {
	var (
		format string
		point  string
		tags   []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every extension point and its plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := filterSnapshot(catalog.Snapshot(), point, tags)
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), snap, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json, yaml")
	cmd.Flags().StringVar(&point, "point", "", "only show the named extension point")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "only show plugins carrying any of these tags")
	return cmd
}

// filterSnapshot 按扩展点名称和插件标签裁剪快照，失败记录保持不变
func filterSnapshot(s extpoint.Snapshot, point string, tags []string) (extpoint.Snapshot, error) {
	if point != "" {
		p, ok := s.Point(point)
		if !ok {
			return s, fmt.Errorf("unknown extension point %q", point)
		}
		s.Points = []extpoint.PointInfo{p}
	}
	if len(tags) == 0 {
		return s, nil
	}

	matched := s.Search(tags...)
	points := make([]extpoint.PointInfo, 0, len(matched))
	for _, p := range s.Points {
		plugins, ok := matched[p.Name]
		if !ok {
			continue
		}
		p.Plugins = plugins
		points = append(points, p)
	}
	s.Points = points
	return s, nil
}

// writeCatalog 以指定格式输出快照
func writeCatalog(w io.Writer, s extpoint.Snapshot, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		return writeTable(w, s)
	default:
		return fmt.Errorf("unsupported format %q (valid: table, json, yaml)", format)
	}
}

func writeTable(w io.Writer, s extpoint.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXTENSION POINT\tSEQ\tPLUGIN\tVERSION\tTAGS")
	for _, p := range s.Points {
		if len(p.Plugins) == 0 {
			fmt.Fprintf(tw, "%s\t-\t-\t\t\n", p.Name)
			continue
		}
		for _, pl := range p.Plugins {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
				p.Name, pl.Seq, pl.Type, pl.Metadata.Version, strings.Join(pl.Metadata.Tags, ","))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Failures) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%d registration(s) dropped:\n", len(s.Failures))
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s\n", f.Error())
	}
	return nil
}
