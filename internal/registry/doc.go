// Package registry owns the ordered collection of monitored nodes and the
// JSON file it is persisted to.
//
// The file holds identities only:
//
//	{
//	    "nodes": [
//	        {"id": 1, "host": "192.168.1.10", "port": 8080}
//	    ]
//	}
//
// Array order is display order. Status samples live in memory and start
// from sentinel values after every restart.
package registry
