package detection

import "image"

// Region locates a template on the base-resolution frame. The search window
// is the template size grown by AddHeight x AddWidth, anchored at every point
// of the region.
type Region struct {
	Top       int
	Left      int
	AddHeight int
	AddWidth  int
	// More lists extra anchors as (x, y).
	More []image.Point
	// Offsets lists anchors relative to (Left, Top), as (dx, dy).
	Offsets []image.Point
}

// Points returns every anchor, primary first.
func (r Region) Points() []image.Point {
	pts := make([]image.Point, 0, 1+len(r.More)+len(r.Offsets))
	pts = append(pts, image.Pt(r.Left, r.Top))
	pts = append(pts, r.More...)
	for _, off := range r.Offsets {
		pts = append(pts, image.Pt(r.Left+off.X, r.Top+off.Y))
	}
	return pts
}

// Down returns the region moved down by px.
func (r Region) Down(px int) Region {
	r.Top += px
	return r
}

// Row returns the region of the given notification row.
func (r Region) Row(row int) Region {
	return r.Down(row * RowSpacing)
}

// Regions holds the search region of every template.
var Regions = map[string]Region{
	// notifications, first row
	"elimination": {Top: 751, Left: 833, AddWidth: 100},
	"assist":      {Top: 751, Left: 833, AddWidth: 100},
	"save":        {Top: 751, Left: 729, AddWidth: 125},

	"killcam":      {Top: 89, Left: 41, AddHeight: 6, AddWidth: 7},
	"death_spec":   {Top: 66, Left: 1416, AddHeight: 1, AddWidth: 3},
	"being_beamed": {Top: 763, Left: 461},
	// pushed right when a Mercy beam icon is also shown
	"being_orbed": {Top: 760, Left: 465, AddWidth: 120},
	"hacked":      {Top: 860, Left: 172},
	"endorsement": {Top: 936, Left: 73, More: []image.Point{{X: 73, Y: 890}, {X: 73, Y: 641}, {X: 73, Y: 595}}},

	"lucio_weapon": {Top: 958, Left: 1702},
	"lucio_heal":   {Top: 668, Left: 796},
	"lucio_speed":  {Top: 668, Left: 1093},

	"mercy_staff":       {Top: 958, Left: 1768},
	"mercy_pistol":      {Top: 946, Left: 1669},
	"mercy_pistol_ult":  {Top: 945, Left: 1669},
	"mercy_heal_beam":   {Top: 672, Left: 807},
	"mercy_damage_beam": {Top: 673, Left: 1080},
	// alternatives: controller, Flash Heal perk, both
	"mercy_resurrect_cd": {Top: 931, Left: 1581, Offsets: []image.Point{{X: -18, Y: -1}, {X: -78, Y: -3}, {X: -96, Y: -4}}},
	"mercy_flash_heal":   {Top: 934, Left: 1581, Offsets: []image.Point{{X: -18, Y: -1}}},

	"zenyatta_weapon":  {Top: 966, Left: 1717},
	"zenyatta_harmony": {Top: 954, Left: 738},
	"zenyatta_discord": {Top: 954, Left: 1157},

	"juno_weapon":           {Top: 950, Left: 1679},
	"juno_glide_boost":      {Top: 931, Left: 1425},
	"juno_pulsar_torpedoes": {Top: 940, Left: 1581},
}

// Templates returns the names of every known template.
func Templates() []string {
	names := make([]string, 0, len(Regions))
	for name := range Regions {
		names = append(names, name)
	}
	return names
}
