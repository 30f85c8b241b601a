package pipeline

import "github.com/gogpu/framegraph/resource"

// Option configures a Pipeline during creation.
//
// Example:
//
//	p := pipeline.New(env,
//	    pipeline.WithRegistry(reg),
//	    pipeline.WithAttachmentHandoff())
type Option func(*options)

type options struct {
	registry       *Registry
	handoff        resource.Layout
	collectorDepth int
}

func defaultOptions(frames int) options {
	return options{
		registry:       NewRegistry(),
		handoff:        resource.LayoutPresent,
		collectorDepth: frames,
	}
}

// WithRegistry sets the module constructors the pipeline builds from.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithAttachmentHandoff hands slot 0 to the compositor in the color
// attachment layout instead of the present layout. Some drivers reject the
// present layout for images that are composited rather than presented.
func WithAttachmentHandoff() Option {
	return func(o *options) {
		o.handoff = resource.LayoutColorAttachment
	}
}

// WithCollectorDepth sets how many frames retired resources are kept alive.
// The default is the number of frames in flight.
func WithCollectorDepth(frames int) Option {
	return func(o *options) {
		if frames > 0 {
			o.collectorDepth = frames
		}
	}
}
