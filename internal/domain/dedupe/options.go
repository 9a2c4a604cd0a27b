package dedupe

import "github.com/brian-reel/airtable-heroku/internal/domain/model"

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithKinds limits bucketing to the given key kinds, in order.
// KindEmployeeID and KindNone are ignored.
func WithKinds(kinds ...model.KeyKind) Option {
	return func(d *Detector) {
		d.kinds = d.kinds[:0]
		for _, k := range kinds {
			if k == model.KindEmail || k == model.KindPhone || k == model.KindName {
				d.kinds = append(d.kinds, k)
			}
		}
	}
}
