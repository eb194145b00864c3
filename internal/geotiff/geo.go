// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package geotiff

import (
	"fmt"

	"github.com/lukeroth/gdal"
)

// Places the image in a projected coordinate system. X and Y are the ground
// coordinates of the center of the upper left pixel
type GeoReference struct {
	X, Y       float64
	PixelSizeX float64
	PixelSizeY float64
	EPSG       int    // projected coordinate system code
	Citation   string // human readable name of the coordinate system
	WKT        string // projection as well known text, takes precedence over EPSG
}

// Returns the georeference for a UTM zone in the northern hemisphere on the given
// North American datum, identified by its year (1927 or 1983)
func NewUTMReference(x, y, pixelSize float64, zone, datumYear int) (*GeoReference, error) {
	var base, maxZone int
	switch datumYear {
	case 1927:
		base, maxZone = 26700, 22
	case 1983:
		base, maxZone = 26900, 23
	default:
		return nil, fmt.Errorf("unsupported datum NAD%d", datumYear%100)
	}
	if zone < 1 || zone > maxZone {
		return nil, fmt.Errorf("UTM zone %d not defined for NAD%d", zone, datumYear%100)
	}
	return &GeoReference{
		X:          x,
		Y:          y,
		PixelSizeX: pixelSize,
		PixelSizeY: pixelSize,
		EPSG:       base + zone,
		Citation:   fmt.Sprintf("UTM Zone %d N with NAD%d", zone, datumYear%100),
	}, nil
}

// Returns the georeference for a north-up GDAL affine transform, which refers to the
// outer corner of the upper left pixel, and a projection in well known text
func NewTransformReference(transform [6]float64, wkt string) *GeoReference {
	return &GeoReference{
		X:          transform[0] + transform[1]/2,
		Y:          transform[3] + transform[5]/2,
		PixelSizeX: transform[1],
		PixelSizeY: -transform[5],
		Citation:   "GDAL source projection",
		WKT:        wkt,
	}
}

// GDAL affine transform, anchored at the outer corner of the upper left pixel
func (g *GeoReference) GeoTransform() [6]float64 {
	return [6]float64{g.X - g.PixelSizeX/2, g.PixelSizeX, 0, g.Y + g.PixelSizeY/2, 0, -g.PixelSizeY}
}

// Returns the projection as well known text, looking up the EPSG code if needed
func (g *GeoReference) ProjectionWKT() (string, error) {
	if g.WKT != "" {
		return g.WKT, nil
	}
	sr := gdal.CreateSpatialReference("")
	defer sr.Destroy()
	if err := sr.FromEPSG(g.EPSG); err != nil {
		return "", fmt.Errorf("EPSG:%d: %w", g.EPSG, err)
	}
	return sr.ToWKT()
}
