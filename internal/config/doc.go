// Package config provides configuration loading for the fileupload server.
//
// The configuration is stored in fileupload.json. Every value has a default,
// so the file may be partial or absent. After the file is read, variables
// prefixed with FILEUPLOAD_ override it; a .env file next to the config file
// is loaded first and never replaces variables already set in the process.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":8080",
//	    "shutdownTimeout": "10s",
//	    "workers": 4
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "store": {
//	    "kind": "s3",
//	    "maxFileSize": 104857600,
//	    "tempExpiry": "1h",
//	    "cleanupInterval": "10m",
//	    "s3": {
//	      "bucket": "uploads",
//	      "prefix": "uploads/temp/",
//	      "region": "eu-west-1"
//	    }
//	  },
//	  "widget": {
//	    "filetypes": [".png", ".csv"],
//	    "multiple": true,
//	    "kind": "area",
//	    "label": null,
//	    "max_size": 1000
//	  }
//	}
//
// # Environment
//
//	FILEUPLOAD_SERVER_ADDR           server.addr
//	FILEUPLOAD_LOG_LEVEL             log.level
//	FILEUPLOAD_LOG_FORMAT            log.format
//	FILEUPLOAD_STORE_KIND            store.kind
//	FILEUPLOAD_STORE_DIR             store.dir
//	FILEUPLOAD_STORE_S3_BUCKET       store.s3.bucket
//	FILEUPLOAD_STORE_S3_SECRET_KEY   store.s3.secretKey
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ApplyEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
