/*
Package rosetta generates language bindings for CGAL-style C++ libraries from a
user-maintained registration header.

A project is described by a small JSON descriptor pointing at the registration
header, an optional TOML rules file and the binding targets to produce. Running
the generator writes one ready-to-build source tree per target language under
the project's output directory.

# Architecture pipeline (for developers)

Each phase of the pipeline lives in its own sub-package. They are glued
together in the [Run] function.
 1. [descriptor]: Parse and validate the 'project.json' descriptor
 2. [registry]: Parse the ROSETTA_* registration macros into the intermediate representation ([ir])
 3. [headerscan]: Cross-check registrations against the native headers (advisory)
 4. [config]: Apply the rename/filter rules from the optional rules file
 5. [emit/python], [emit/golang]: Write the per-language binding source trees
 6. [manifest]: Record what the run produced
*/
package rosetta
