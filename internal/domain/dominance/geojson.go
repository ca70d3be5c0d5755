package dominance

import (
	"github.com/okian/pitchmap/internal/domain/model"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection exports the regions of a frame as GeoJSON in normalized
// coordinates. Features are ordered by player id and carry the owner's id,
// team, jersey, fill colour and region area.
func FeatureCollection(f model.Frame, res Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range f.Players() {
		poly, ok := res.Regions[e.ID]
		if !ok {
			continue
		}
		feat := geojson.NewFeature(poly)
		feat.ID = e.ID
		feat.Properties["id"] = e.ID
		feat.Properties["team"] = string(e.Team())
		feat.Properties["color"] = e.Style.Fill
		feat.Properties["area"] = res.Area(e.ID)
		if j := e.JerseyNumber(); j != "" {
			feat.Properties["jersey_number"] = j
		}
		fc.Append(feat)
	}
	return fc
}
