package autoload

// Import all middleware subpackages for side-effect registration.
import (
	_ "frieddie/middlewares/greeting"
	_ "frieddie/middlewares/tokenbudget"
)
