// Command zones2geojson converts a polygon shapefile into the slim GeoJSON
// zone format the portal detector consumes: polygons with a "name" property.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func main() {
	inputPath := flag.String("input", "", "Path to input .shp file")
	outputPath := flag.String("output", "", "Path to output .geojson file")
	nameField := flag.String("name-field", "NAME", "Attribute column holding the zone name")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		flag.Usage()
		log.Fatal("Input and output paths are required")
	}

	if err := run(*inputPath, *outputPath, *nameField); err != nil {
		log.Fatal(err)
	}
}

func run(inputPath, outputPath, nameField string) error {
	shape, err := shp.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shape.Close()

	// Locate the name attribute
	nameIdx := -1
	fields := shape.Fields()
	for i, f := range fields {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), nameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return fmt.Errorf("attribute %q not found in shapefile", nameField)
	}

	fc := geojson.NewFeatureCollection()
	skipped := 0

	for shape.Next() {
		n, p := shape.Shape()

		poly, ok := p.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		f := geojson.NewFeature(convertPolygon(poly))
		f.Properties["name"] = shape.ReadAttribute(n, nameIdx)
		fc.Append(f)
	}

	if err := shape.Err(); err != nil {
		return fmt.Errorf("error iterating shapes: %w", err)
	}
	if skipped > 0 {
		log.Printf("Skipped %d non-polygon shapes", skipped)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Converted %d zones to %s\n", len(fc.Features), outputPath)
	return nil
}

func convertPolygon(s *shp.Polygon) orb.Polygon {
	// Treat all parts as rings of a single polygon
	var poly orb.Polygon

	for i := 0; i < int(s.NumParts); i++ {
		start := s.Parts[i]
		end := s.NumPoints
		if i < int(s.NumParts)-1 {
			end = s.Parts[i+1]
		}

		var ring orb.Ring
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{s.Points[j].X, s.Points[j].Y})
		}
		poly = append(poly, ring)
	}
	return poly
}
