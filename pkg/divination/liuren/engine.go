package liuren

import (
	"fmt"
	"time"
)

// PalaceAssignment anchors the reading at the taiji point.
type PalaceAssignment struct {
	Index      int     `json:"index"` // 0..5, (num1+num2-1) mod 6
	Name       string  `json:"name"`
	Position   int     `json:"position"` // 1..6 palace position
	Element    Element `json:"element"`
	Nature     string  `json:"nature"`
	Meaning    string  `json:"meaning"`
	BodyPalace int     `json:"body_palace"` // num1 verbatim
	UsePalace  int     `json:"use_palace"`  // num2 verbatim
}

// HourSequence is the six-branch cyclic ordering derived from the
// asking hour's branch and its polarity.
type HourSequence struct {
	Branch   string    `json:"branch"`
	Element  Element   `json:"element"`
	Yang     bool      `json:"yang"`
	Hour     int       `json:"hour"`
	Sequence [6]string `json:"sequence"`
}

// BeastAssignment binds one beast to one palace position.
type BeastAssignment struct {
	Position int     `json:"position"` // 1..6 palace position
	Palace   string  `json:"palace"`
	Branch   string  `json:"branch"` // sequence branch at this position
	Beast    string  `json:"beast"`
	Element  Element `json:"element"`
}

// RelativeAssignment binds one relative label to one palace position.
type RelativeAssignment struct {
	Position int      `json:"position"`
	Palace   string   `json:"palace"`
	Relative Relative `json:"relative"`
	Relation string   `json:"relation"` // 同 / 生 / 生我 / 克 / 克我 against the base element
}

// Reading is the deterministic part of a computation: palace, hour
// sequence, beast and relative mappings. Fully determined by
// (num1, num2, askTime); the advisory stages never touch it.
type Reading struct {
	Palace      PalaceAssignment     `json:"palace"`
	Hour        HourSequence         `json:"hour"`
	BaseElement Element              `json:"base_element"`
	Beasts      [6]BeastAssignment   `json:"beasts"`
	Relatives   [6]RelativeAssignment `json:"relatives"`
}

// TaijiRelative returns the relative occupying the taiji palace.
func (r *Reading) TaijiRelative() Relative {
	return r.Relatives[r.Palace.Position-1].Relative
}

// ComputeReading runs the four deterministic stages. askTime must
// already be localized to the asker's timezone; only its wall-clock
// hour participates in the computation.
func ComputeReading(num1, num2 int, askTime time.Time) (*Reading, error) {
	if num1 < 1 || num2 < 1 {
		return nil, fmt.Errorf("reported numbers must be positive, got %d and %d", num1, num2)
	}

	reading := &Reading{}

	// Stage 1: taiji point and palace mapping.
	index := ((num1+num2-1)%6 + 6) % 6
	palace := PalaceByIndex(index)
	reading.Palace = PalaceAssignment{
		Index:      index,
		Name:       palace.Name,
		Position:   palace.Position,
		Element:    palace.Element,
		Nature:     palace.Nature,
		Meaning:    palace.Meaning,
		BodyPalace: num1,
		UsePalace:  num2,
	}

	// Stage 2: hour branch and polarity rotation. A yang branch walks
	// the 12-cycle forward, a yin branch backward, taking every other
	// position for six distinct branches in cyclic order.
	branch := BranchForHour(askTime.Hour())
	step := 2
	if !branch.Yang {
		step = -2
	}
	start := branch.Order - 1
	var seq [6]Branch
	for i := 0; i < 6; i++ {
		pos := ((start+step*i)%12 + 12) % 12
		seq[i] = Branches[pos]
	}
	hour := HourSequence{
		Branch:  branch.Name,
		Element: branch.Element,
		Yang:    branch.Yang,
		Hour:    askTime.Hour(),
	}
	for i, b := range seq {
		hour.Sequence[i] = b.Name
	}
	reading.Hour = hour

	// Stage 3: the first branch of the sequence anchors its owning
	// beast at palace position one; the rest follow in fixed order.
	anchor := beastOwning(seq[0].Name)
	for i := 0; i < 6; i++ {
		beast := Beasts[(anchor+i)%6]
		reading.Beasts[i] = BeastAssignment{
			Position: i + 1,
			Palace:   Palaces[i].Name,
			Branch:   seq[i].Name,
			Beast:    beast.Name,
			Element:  beast.Element,
		}
	}

	// Stage 4: the branch sitting in the taiji palace's slot of the
	// hour sequence fixes the base element; every palace is classified
	// against it through the generation/conquest cycle.
	base := seq[palace.Position-1].Element
	reading.BaseElement = base
	for i, p := range Palaces {
		reading.Relatives[i] = RelativeAssignment{
			Position: p.Position,
			Palace:   p.Name,
			Relative: RelativeFor(base, p.Element),
			Relation: relationLabel(base, p.Element),
		}
	}

	return reading, nil
}

func relationLabel(base, palace Element) string {
	switch {
	case base == palace:
		return "同"
	case Generates(base, palace):
		return "生"
	case Generates(palace, base):
		return "生我"
	case Conquers(base, palace):
		return "克"
	default:
		return "克我"
	}
}
