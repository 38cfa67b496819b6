package transform

import "github.com/ramlog/ramlog/ast"

// Default assembles the 17-pass pipeline in spec.md §4.2's documented
// order -- type/overload normalization, then aggregation handling, then
// structural simplification, then pruning, then (if lattices exist) the
// lattice pass -- wrapped in an outer Fixpoint so later passes that expose
// new opportunities for earlier ones (e.g. pruning a relation copy can
// make another relation newly redundant) are revisited automatically.
//
// typeOf resolves an argument's inferred type for polymorphic resolution
// (supplied by the type-inference analysis); functorDecls declares every
// user functor's signature; errs collects semantic errors raised along the
// way (missing functor declarations, arity mismatches) instead of failing
// the whole pipeline on the first one.
func Default(typeOf func(ast.Argument) *ast.Type, functorDecls map[string]FunctorDecl, errs *MultiError) Transformer {
	typeNormalization := Sequence(
		RemoveTypecasts(),
		PolymorphicResolution(typeOf),
		UserFunctorResolution(functorDecls, errs),
	)
	aggregationHandling := Sequence(
		UniqueAggregationVariables(),
		MaterializeAggregationQueries(),
	)
	structuralSimplification := Sequence(
		NormalizeConstraints(),
		RemoveBooleanConstraints(),
		ReplaceSingletonVariables(true),
		PartitionBodyLiterals(),
		ReduceExistentials(),
	)
	pruning := Sequence(
		RedundantRelationRemoval(),
		RemoveEmptyRelations(),
		RemoveRelationCopies(),
		FoldAnonymousRecords(),
		RemoveConstantBinaryConstraints(),
		RemoveRedundantSums(),
	)

	return Fixpoint(Sequence(
		typeNormalization,
		aggregationHandling,
		structuralSimplification,
		pruning,
		InsertLatticeOperations(),
	))
}
