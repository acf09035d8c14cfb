// Package catalog loads query definition files and builds query trees
// from them.
//
// A definition file declares extensional relations, named queries and
// recursive groups. The same structure is read from CUE (a directory
// package or a single file) or from YAML:
//
//	relations:
//	  edge: {columns: [src, dst]}
//	groups:
//	  closure:
//	    - name: path
//	      base: {edb: edge}
//	      step:
//	        flatMap:
//	          from: {ref: path}
//	          as: p
//	          body:
//	            map:
//	              from:
//	                filter:
//	                  from: {edb: edge}
//	                  as: e
//	                  where: {eq: [{col: p.dst}, {col: e.src}]}
//	              as: e
//	              to: {fields: [{name: src, value: {col: p.src}}, {name: dst, value: {col: e.dst}}]}
//	queries:
//	  from_one:
//	    filter:
//	      from: {query: path}
//	      where: {eq: [{col: r.src}, {lit: 1}]}
//
// Query nodes set exactly one of edb, query (another named query or
// group member), ref (a member of the enclosing group, only inside a
// step), filter, map, flatMap or union. Lambda parameters are named by
// "as" (default "r"); a column is "binder.column", or a bare column
// name of the innermost binder.
//
// Expressions set exactly one of col, ref, lit, eq, and, plus, tuple or
// fields.
package catalog
