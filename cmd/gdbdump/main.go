// gdbdump inspects file geodatabase tables: header metadata, field
// definitions, index catalogs and row contents.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/wkt"
	"golang.org/x/sync/errgroup"

	gofilegdb "github.com/desertstsung/go-filegdb"
	"github.com/desertstsung/go-filegdb/geometry"
)

var (
	asJSON        bool
	limit         int64
	withDeleted   bool
	datesAsDouble bool
	filterSpec    string
)

func main() {
	root := &cobra.Command{
		Use:           "gdbdump",
		Short:         "Inspect file geodatabase tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")

	info := &cobra.Command{
		Use:   "info <table.gdbtable>...",
		Short: "Print table header metadata",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInfo,
	}

	fields := &cobra.Command{
		Use:   "fields <table.gdbtable>",
		Short: "List field definitions",
		Args:  cobra.ExactArgs(1),
		RunE:  runFields,
	}

	indexes := &cobra.Command{
		Use:   "indexes <table.gdbtable>",
		Short: "List the index catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndexes,
	}

	dump := &cobra.Command{
		Use:   "dump <table.gdbtable>",
		Short: "Print row contents",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
	dump.Flags().Int64Var(&limit, "limit", 0, "stop after this many rows (0 = all)")
	dump.Flags().BoolVar(&withDeleted, "deleted", false, "include rows marked deleted (scanned tables only)")
	dump.Flags().BoolVar(&datesAsDouble, "dates-as-double", false, "keep timestamps as raw day numbers")
	dump.Flags().StringVar(&filterSpec, "filter", "", "spatial filter as minx,miny,maxx,maxy")

	extent := &cobra.Command{
		Use:   "extent <table.gdbtable>",
		Short: "Compute the layer extent from row bounding boxes",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtent,
	}

	root.AddCommand(info, fields, indexes, dump, extent)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gdbdump:", err)
		os.Exit(1)
	}
}

type tableInfo struct {
	Path              string `json:"path"`
	Version           int    `json:"version"`
	ValidRecords      int64  `json:"validRecords"`
	TotalSlots        int64  `json:"totalSlots"`
	Fields            int    `json:"fields"`
	GeometryType      string `json:"geometryType"`
	HasZ              bool   `json:"hasZ"`
	HasM              bool   `json:"hasM"`
	UTF8Strings       bool   `json:"utf8Strings"`
	ReliableObjectIDs bool   `json:"reliableObjectIds"`
	SpatialIndex      bool   `json:"spatialIndex"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	infos := make([]*tableInfo, len(args))
	var g errgroup.Group
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			tab, err := gofilegdb.Open(path, nil)
			if err != nil {
				return err
			}
			defer tab.Close()
			infos[i] = &tableInfo{
				Path:              path,
				Version:           tab.Version(),
				ValidRecords:      tab.ValidRecordCount(),
				TotalSlots:        tab.TotalRecordCount(),
				Fields:            tab.FieldCount(),
				GeometryType:      tab.GeomType().String(),
				HasZ:              tab.HasZ(),
				HasM:              tab.HasM(),
				UTF8Strings:       tab.StringsAreUTF8(),
				ReliableObjectIDs: tab.ReliableObjectIDs(),
				SpatialIndex:      tab.HasSpatialIndex(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if asJSON {
		return emitJSON(infos)
	}
	for _, in := range infos {
		fmt.Printf("%s\n", in.Path)
		fmt.Printf("  version:          %d\n", in.Version)
		fmt.Printf("  valid records:    %d\n", in.ValidRecords)
		fmt.Printf("  total slots:      %d\n", in.TotalSlots)
		fmt.Printf("  fields:           %d\n", in.Fields)
		fmt.Printf("  geometry:         %s (Z=%v M=%v)\n", in.GeometryType, in.HasZ, in.HasM)
		fmt.Printf("  utf8 strings:     %v\n", in.UTF8Strings)
		fmt.Printf("  reliable oids:    %v\n", in.ReliableObjectIDs)
		fmt.Printf("  spatial index:    %v\n", in.SpatialIndex)
	}
	return nil
}

func runFields(cmd *cobra.Command, args []string) error {
	tab, err := gofilegdb.Open(args[0], nil)
	if err != nil {
		return err
	}
	defer tab.Close()

	if asJSON {
		type fieldInfo struct {
			Name     string `json:"name"`
			Alias    string `json:"alias,omitempty"`
			Type     string `json:"type"`
			Nullable bool   `json:"nullable"`
			Width    int    `json:"width,omitempty"`
		}
		out := make([]fieldInfo, 0, tab.FieldCount())
		for _, f := range tab.Fields() {
			out = append(out, fieldInfo{
				Name: f.Name, Alias: f.Alias, Type: f.Type.String(),
				Nullable: f.Nullable, Width: f.MaxWidth,
			})
		}
		return emitJSON(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tTYPE\tNULL\tWIDTH\tDEFAULT")
	for i, f := range tab.Fields() {
		def := ""
		if f.Default != nil {
			def = fmt.Sprint(f.Default)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%d\t%s\n",
			i, f.Name, f.Type, f.Nullable, f.MaxWidth, def)
	}
	return w.Flush()
}

func runIndexes(cmd *cobra.Command, args []string) error {
	tab, err := gofilegdb.Open(args[0], nil)
	if err != nil {
		return err
	}
	defer tab.Close()

	ixs, err := tab.Indexes()
	if err != nil {
		return err
	}
	if asJSON {
		return emitJSON(ixs)
	}
	if len(ixs) == 0 {
		fmt.Println("no indexes")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXPRESSION\tFIELD")
	for _, ix := range ixs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ix.Name, ix.Expression, ix.FieldName())
	}
	if tab.HasSpatialIndex() {
		fmt.Fprintln(w, "<spatial>\t\t"+spatialFieldName(tab))
	}
	return w.Flush()
}

func spatialFieldName(tab *gofilegdb.Table) string {
	if i := tab.GeomFieldIndex(); i >= 0 {
		return tab.Field(i).Name
	}
	return ""
}

func parseFilter(spec string) (*geometry.Envelope, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("filter wants minx,miny,maxx,maxy, got %q", spec)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("filter coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	return &geometry.Envelope{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]}, nil
}

func runDump(cmd *cobra.Command, args []string) error {
	env, err := parseFilter(filterSpec)
	if err != nil {
		return err
	}
	tab, err := gofilegdb.Open(args[0], &gofilegdb.Options{
		ReportDeletedRows: withDeleted,
		DatesAsDouble:     datesAsDouble,
	})
	if err != nil {
		return err
	}
	defer tab.Close()

	if env != nil {
		if err := tab.InstallFilterEnvelope(env); err != nil {
			return err
		}
	}

	names := make([]string, tab.FieldCount())
	for i, f := range tab.Fields() {
		names[i] = f.Name
	}

	enc := json.NewEncoder(os.Stdout)
	var printed int64
	for row, err := tab.GetAndSelectNextNonEmptyRow(0); row >= 0; row, err = tab.GetAndSelectNextNonEmptyRow(row + 1) {
		if err != nil {
			return err
		}
		if env != nil && !tab.CurrentRowIntersectsFilter() {
			continue
		}
		vals, err := tab.GetAllFieldValues()
		if err != nil {
			return err
		}
		rec := make(map[string]any, len(vals))
		for i, v := range vals {
			rec[names[i]] = renderValue(tab, i, v)
		}
		if tab.CurrentRowIsDeleted() {
			rec["_deleted"] = true
		}
		if asJSON {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		} else {
			printRecord(row, rec)
		}
		printed++
		if limit > 0 && printed >= limit {
			break
		}
	}
	return nil
}

func renderValue(tab *gofilegdb.Table, col int, v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case []byte:
		if col == tab.GeomFieldIndex() {
			g, err := tab.GeomDecoder().Decode(tv)
			if err != nil || g == nil {
				return fmt.Sprintf("<geometry %d bytes>", len(tv))
			}
			s, err := wkt.Marshal(g)
			if err != nil {
				return fmt.Sprintf("<geometry %d bytes>", len(tv))
			}
			return s
		}
		return fmt.Sprintf("<%d bytes>", len(tv))
	case time.Time:
		return tv.Format(time.RFC3339)
	case time.Duration:
		return tv.String()
	default:
		return v
	}
}

func printRecord(row int64, rec map[string]any) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "row %d:", row)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, rec[k])
	}
	fmt.Println(b.String())
}

func runExtent(cmd *cobra.Command, args []string) error {
	tab, err := gofilegdb.Open(args[0], nil)
	if err != nil {
		return err
	}
	defer tab.Close()
	if tab.GeomFieldIndex() < 0 {
		return fmt.Errorf("%s: table has no geometry field", args[0])
	}

	var total geometry.Envelope
	seen := false
	for row, err := tab.GetAndSelectNextNonEmptyRow(0); row >= 0; row, err = tab.GetAndSelectNextNonEmptyRow(row + 1) {
		if err != nil {
			return err
		}
		env, ok, err := tab.CurrentRowExtent()
		if err != nil || !ok {
			continue
		}
		if !seen {
			total = env
			seen = true
			continue
		}
		if env.MinX < total.MinX {
			total.MinX = env.MinX
		}
		if env.MinY < total.MinY {
			total.MinY = env.MinY
		}
		if env.MaxX > total.MaxX {
			total.MaxX = env.MaxX
		}
		if env.MaxY > total.MaxY {
			total.MaxY = env.MaxY
		}
	}
	if !seen {
		fmt.Println("no features with an extent")
		return nil
	}
	if asJSON {
		return emitJSON(total)
	}
	fmt.Printf("%g %g %g %g\n", total.MinX, total.MinY, total.MaxX, total.MaxY)
	return nil
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
