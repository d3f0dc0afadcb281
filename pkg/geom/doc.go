// Package geom provides the spatial primitives shared by the scene graph:
// an axis-aligned bounding box accumulator and composable rigid/affine
// frames. Both wrap the sdfx types (sdf.Box3, sdf.M44, v3.Vec) so geometry
// produced by the kernel can be fed in without conversion.
package geom
