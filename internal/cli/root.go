package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "add":
		return runAdd(args[1:])
	case "run":
		return runRun(args[1:])
	case "status":
		return runStatus(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "serve":
		return runServe(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("fetchq: batch media acquisition queue")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  fetchq add <url> [<url> ...]")
	fmt.Println("  fetchq run")
	fmt.Println("  fetchq status")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  add       append source URLs to the persisted queue")
	fmt.Println("  run       drain the queue, downloading with bounded concurrency")
	fmt.Println("  watch     run the queue with a live terminal dashboard")
	fmt.Println("  serve     expose the queue over an HTTP API")
	fmt.Println("  status    show queue counts and recent outcomes from the state file")
	fmt.Println("  doctor    run dependency and filesystem preflight checks")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Interrupting run/watch returns in-flight jobs to the queue for resume")
}
