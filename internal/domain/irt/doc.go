// Package irt implements the three-parameter logistic (3PL) item response
// model: response probability, Fisher information, and a batch maximum
// likelihood ability estimator solved by Newton-Raphson.
//
// Everything in this package is a pure function of its inputs. Estimation
// always runs over the full response history, so the result never depends
// on the order in which items were administered.
package irt
