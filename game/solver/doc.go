// Package solver finds shortest winning plans for levels.
//
// Solve runs a breadth-first search over board positions and player stats.
// Shop purchases are part of the search, so levels that can only be won by
// buying a potion are still solved. The search is bounded by the level's
// move budget and by a cap on explored states.
//
//	sol, err := solver.Solve(cfg, 0)
//	if errors.Is(err, solver.ErrNoSolution) {
//		// the level cannot be won
//	}
//	fmt.Println(sol)
package solver
