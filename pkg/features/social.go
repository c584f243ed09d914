package features

import (
	"context"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/schema"
)

var socialCircleProducts = []struct {
	output, days30, days60 string
}{
	{"OBS_CNT_SOCIAL_CIRCLE", "OBS_30_CNT_SOCIAL_CIRCLE", "OBS_60_CNT_SOCIAL_CIRCLE"},
	{"DEF_CNT_SOCIAL_CIRCLE", "DEF_30_CNT_SOCIAL_CIRCLE", "DEF_60_CNT_SOCIAL_CIRCLE"},
}

// SocialCircle multiplies the 30 and 60 day social circle counts into one
// observation column and one default column, and drops the four sources.
// Applying it twice fails: the sources are gone after the first run.
type SocialCircle struct{}

// NewSocialCircle creates the transform
func NewSocialCircle() *SocialCircle { return &SocialCircle{} }

func (s *SocialCircle) Name() string { return "social_circle" }

func (s *SocialCircle) Contract() schema.Contract {
	var c schema.Contract
	for _, p := range socialCircleProducts {
		c.Requires = append(c.Requires, schema.Numeric(p.days30, p.days60)...)
		c.Produces = append(c.Produces, schema.F(p.output, schema.KindNumeric))
		c.Drops = append(c.Drops, p.days30, p.days60)
	}
	return c
}

func (s *SocialCircle) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	out := primary
	var drops []string
	for _, p := range socialCircleProducts {
		a, err := primary.Floats(p.days30)
		if err != nil {
			return nil, err
		}
		b, err := primary.Floats(p.days60)
		if err != nil {
			return nil, err
		}
		for i := range a {
			a[i] *= b[i]
		}
		if out, err = derive(out, p.output, columnar.NewFloatColumnFrom(a)); err != nil {
			return nil, err
		}
		drops = append(drops, p.days30, p.days60)
	}
	return out.Drop(drops...)
}

// DropID removes SK_ID_CURR. It has to be the last step: every join keys on
// the applicant id.
type DropID struct{}

// NewDropID creates the transform
func NewDropID() *DropID { return &DropID{} }

func (d *DropID) Name() string { return "drop_id" }

func (d *DropID) Contract() schema.Contract {
	return schema.Contract{
		Requires: []schema.Field{keyField()},
		Drops:    []string{KeyApplicant},
	}
}

func (d *DropID) Transform(_ context.Context, primary *columnar.Table, _ Tables) (*columnar.Table, error) {
	return primary.Drop(KeyApplicant)
}
