// Package framegraph is the frame-graph core of a real-time GPU renderer.
//
// # Overview
//
// A frame graph is a linear chain of full-screen post-processing stages
// ("world modules": ray tracing, denoising, temporal accumulation,
// super-resolution upscaling, tone mapping) connected through shared image
// slots. framegraph validates the chain, negotiates the size and format of
// every slot image across module boundaries, and records the chain once per
// displayed frame with explicit image layout transitions.
//
// # Architecture
//
// The library is organized into:
//   - blueprint: module kinds, descriptors and slot topology validation
//   - resource: images, layouts, transitions, the shared image pool
//   - module: the contract every stage implements
//   - pipeline: reverse-order builder, forward-order frame executor, lifecycle
//   - modules/upscaler: adaptive-resolution upscaler with a resize fallback
//   - modules/passthrough: stand-in stages that forward their first input
//
// # Quick Start
//
//	bp, err := blueprint.Load("chain.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	env, err := module.NewEnv(provider, resource.Extent{Width: 1920, Height: 1080}, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p := pipeline.New(env, pipeline.WithRegistry(reg))
//	p.SetBlueprint(bp)
//	if err := p.Recreate(); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	// Each displayed frame:
//	if err := p.Render(&module.Frame{Index: frame, Encoder: enc, Camera: cam}); err != nil {
//	    log.Fatal(err)
//	}
//	index, _ := queue.Submit(cmds)
//	p.Submitted(index)
//
// # Logging
//
// framegraph is silent by default. See [SetLogger].
package framegraph

// Version is the current version of the library.
const Version = "0.1.0"
