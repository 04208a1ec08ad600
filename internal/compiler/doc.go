// Package compiler turns CUE class definitions into ir.ClassSpec values
// and validates them.
//
// A class definition lives under the top-level "class" struct:
//
//	class: ComposableBase: {
//		purpose: "Demonstrates method composition"
//		constructor: fields: ["name"]
//		accessor: Name: field: "name"
//		method: doSomeCalculation: {
//			impl: "multiply"
//			args: {x: int, y: int}
//		}
//		method: doSomethingIllegal: {
//			impl:    "fail"
//			message: "Oh no!"
//		}
//	}
//
// CompileClass reports structural problems as *CompileError with a CUE
// source position. Validate reports rule violations as coded
// ValidationErrors and never stops at the first one.
package compiler
