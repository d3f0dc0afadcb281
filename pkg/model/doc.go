// Package model defines the Model that owns a molecular scene tree.
// A Model indexes its nodes by identifier and name, tracks the selection
// and validates the tree before it is drawn or exported.
package model
