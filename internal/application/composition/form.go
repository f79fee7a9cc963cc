package composition

import (
	"strings"

	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// FormSlots is the number of ion slots the entry form offers per site.
const FormSlots = 6

// SiteSlots holds the raw slot values of one site as typed into the form.
// Coefficients[i] belongs to Ions[i].
type SiteSlots struct {
	Ions         []string `json:"ions"`
	Coefficients []string `json:"coefficients"`
}

// FormInput is the unprocessed content of the entry form.
type FormInput struct {
	A              SiteSlots `json:"a"`
	B              SiteSlots `json:"b"`
	C              SiteSlots `json:"c"`
	BandGap        string    `json:"band_gap"`
	Dimensionality string    `json:"dimensionality"`
	Additives      []string  `json:"additives"`
	Folder         string    `json:"folder"`
	FileName       string    `json:"file_name"`
}

func (f FormInput) slots(site ptypes.Site) SiteSlots {
	switch site {
	case ptypes.SiteA:
		return f.A
	case ptypes.SiteB:
		return f.B
	default:
		return f.C
	}
}

// Clean turns form slots into a composition request and its destination.
// The file name is returned as typed; Compose normalises it.
func (f FormInput) Clean() (ptypes.Request, ptypes.Destination, error) {
	var req ptypes.Request
	for _, site := range ptypes.Sites {
		in, err := cleanSite(site, f.slots(site))
		if err != nil {
			return ptypes.Request{}, ptypes.Destination{}, err
		}
		switch site {
		case ptypes.SiteA:
			req.A = in
		case ptypes.SiteB:
			req.B = in
		default:
			req.C = in
		}
	}
	req.BandGap = cleanDecimal(f.BandGap)
	req.Dimensionality = strings.TrimSpace(f.Dimensionality)
	req.Additives = f.Additives

	dest := ptypes.Destination{
		Folder:   strings.TrimSpace(f.Folder),
		FileName: f.FileName,
	}
	return req, dest, nil
}

func cleanSite(site ptypes.Site, slots SiteSlots) (ptypes.SiteInput, error) {
	in := ptypes.SiteInput{
		Ions:         make([]string, 0, len(slots.Ions)),
		Coefficients: make([]ptypes.Coefficient, 0, len(slots.Ions)),
	}
	for i, raw := range slots.Ions {
		ion := strings.TrimSpace(raw)
		if ion == "" {
			continue
		}
		coef := ptypes.MissingCoefficient()
		if i < len(slots.Coefficients) {
			if text := cleanDecimal(slots.Coefficients[i]); text != "" {
				coef = ptypes.NewCoefficient(text)
			}
		}
		in.Ions = append(in.Ions, ion)
		in.Coefficients = append(in.Coefficients, coef)
	}
	for i := len(slots.Ions); i < len(slots.Coefficients); i++ {
		if strings.TrimSpace(slots.Coefficients[i]) != "" {
			return ptypes.SiteInput{}, errors.Newf(errors.ErrCodeCoefficientOverflow,
				"site %s: coefficient %q in slot %d has no ion", site, strings.TrimSpace(slots.Coefficients[i]), i+1)
		}
	}
	return in, nil
}

// cleanDecimal accepts a decimal comma.
func cleanDecimal(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
}
