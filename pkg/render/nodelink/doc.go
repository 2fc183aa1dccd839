// Package nodelink draws resolutions and hoisted trees as Graphviz diagrams.
//
// [GraphDOT] renders the resolved dependency graph: one node per distinct
// package, one edge per dependency pattern, rooted at a virtual project
// node. [TreeDOT] renders the hoisted module tree: one node per tree key,
// edges from each key to the keys nested under it. Both produce DOT source;
// [RenderSVG] turns DOT into SVG in-process with go-graphviz.
//
//	dot := nodelink.GraphDOT(resolver, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Optional packages are drawn dashed and ignored packages grey. With
// Options.Detailed, labels also carry the package's location or tree path.
package nodelink
