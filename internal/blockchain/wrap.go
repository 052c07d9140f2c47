package blockchain

import "fmt"

func wrapUnreachable(context string, err error) error {
	return fmt.Errorf("%s: %w: %v", context, ErrNodeUnreachable, err)
}
