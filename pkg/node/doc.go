// Package node implements the renderable scene-graph nodes and their
// compiled-list cache.
//
// Every renderable node owns up to four display lists, one per Tier:
//
//	draw            the node's own geometry, compiled from its Draw hook
//	bounding box    a wireframe of the node's bounding box
//	transformation  pushes the modelview and applies the node's Frame
//	total           composes the others, gated by visibility
//
// The lists exist only while the node holds a resource lease
// (AcquireResources/ReleaseResources). Invalidating a tier marks it dirty,
// enqueues its revalidation on the Context and propagates a bounding-box
// invalidation to the parent. The Context drains the queued revalidations
// before the next frame is drawn.
//
// Concrete nodes embed Renderer or Transformer and pass themselves to
// Init so that overridden methods are reached through the outer value.
package node
